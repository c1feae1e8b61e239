package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/munnerz/goautoneg"

	"github.com/korjavin/foodatease/internal/metrics"
	"github.com/korjavin/foodatease/internal/rating"
	"github.com/korjavin/foodatease/internal/store"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	maxBodyBytes       = 1 << 20
)

// ProductStore is the read side of the product store.
type ProductStore interface {
	Get(barcode string) (store.Product, bool, error)
	GetBySlug(slug string) (store.Product, bool, error)
	Search(q string, opts store.SearchOptions) ([]store.Product, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	// Store may be nil; product routes then answer 503.
	Store    ProductStore
	Manifest *store.Manifest
	Engine   *rating.Engine

	// Workers and MaxBatch bound batch scoring.
	Workers  int
	MaxBatch int

	productHist *metrics.Histogram
	searchHist  *metrics.Histogram
	scoreHist   *metrics.Histogram
}

// productResponse is the JSON shape returned for a single product.
type productResponse struct {
	Barcode      string                  `json:"barcode"`
	Slug         string                  `json:"slug,omitempty"`
	Name         string                  `json:"name"`
	Brand        string                  `json:"brand,omitempty"`
	Category     string                  `json:"category,omitempty"`
	PackageSizeG float64                 `json:"package_size_g"`
	Nutrients    rating.NutrientProfile  `json:"nutrients"`
	Score        *rating.Score           `json:"foodatease_score,omitempty"`
	SafeLimit    *rating.SafeLimitResult `json:"safe_limit,omitempty"`
}

func toProductResponse(p store.Product) productResponse {
	return productResponse{
		Barcode:      p.Barcode,
		Slug:         p.Slug,
		Name:         p.Name,
		Brand:        p.Brand,
		Category:     p.Category,
		PackageSizeG: p.PackageSizeG,
		Nutrients:    p.Nutrients,
		Score:        p.Score,
		SafeLimit:    p.SafeLimit,
	}
}

// timed starts a latency measurement; call the returned func when done.
func timed(hist *metrics.Histogram) func() {
	if hist == nil {
		return func() {}
	}
	start := time.Now()
	return func() { hist.Since(start) }
}

// Health returns a liveness check with manifest metadata.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":       "ok",
		"store":        h.Store != nil,
		"daily_limits": h.Engine.Limits(),
	}
	if h.Manifest != nil {
		resp["schema_version"] = h.Manifest.SchemaVersion
		resp["build_time"] = h.Manifest.BuildTime
		resp["product_count"] = h.Manifest.ProductCount
		resp["rated_count"] = h.Manifest.RatedCount
	}
	writeJSON(w, http.StatusOK, resp)
}

// Metrics serves the latency histograms as JSON, or in the Prometheus text
// format when the client prefers text/plain.
func Metrics(reg *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil {
			writeJSON(w, http.StatusOK, map[string]metrics.Snapshot{})
			return
		}
		accept := r.Header.Get("Accept")
		if goautoneg.Negotiate(accept, []string{"application/json", "text/plain"}) == "text/plain" {
			w.Header().Set("Content-Type", string(metrics.PrometheusFormat))
			if err := reg.WritePrometheus(w); err != nil {
				slog.Error("failed to write metrics", "error", err)
			}
			return
		}
		writeJSON(w, http.StatusOK, reg.Snapshot())
	}
}

// FoodByBarcode returns a stored product with its nutrients, score and safe
// limit.
func (h *Handler) FoodByBarcode(w http.ResponseWriter, r *http.Request) {
	h.serveProduct(w, "barcode", r.PathValue("barcode"))
}

// FoodBySlug is FoodByBarcode keyed by the product's URL slug.
func (h *Handler) FoodBySlug(w http.ResponseWriter, r *http.Request) {
	h.serveProduct(w, "slug", r.PathValue("slug"))
}

// serveProduct looks key up as a barcode or, when kind is "slug", as a slug.
func (h *Handler) serveProduct(w http.ResponseWriter, kind, key string) {
	defer timed(h.productHist)()
	if h.Store == nil {
		http.Error(w, "product store not loaded", http.StatusServiceUnavailable)
		return
	}

	var (
		p     store.Product
		found bool
		err   error
	)
	if kind == "slug" {
		p, found, err = h.Store.GetBySlug(key)
	} else {
		p, found, err = h.Store.Get(key)
	}
	if err != nil {
		slog.Error("product lookup failed", kind, key, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// FoodSearch searches for foods by name, optionally keeping only products
// rated at least min_stars or of one category.
func (h *Handler) FoodSearch(w http.ResponseWriter, r *http.Request) {
	defer timed(h.searchHist)()
	if h.Store == nil {
		http.Error(w, "product store not loaded", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	q := query.Get("q")
	if q == "" {
		http.Error(w, "missing query parameter 'q'", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if ls := query.Get("limit"); ls != "" {
		if n, err := strconv.Atoi(ls); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var minStars int
	if ms := query.Get("min_stars"); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n < 1 || n > 5 {
			http.Error(w, "min_stars must be between 1 and 5", http.StatusBadRequest)
			return
		}
		minStars = n
	}

	opts := store.SearchOptions{Limit: limit, MinStars: minStars, Category: query.Get("category")}
	products, err := h.Store.Search(q, opts)
	if err != nil {
		slog.Error("search failed", "query", q, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	results := make([]productResponse, len(products))
	for i, p := range products {
		results[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// scoreRequest is one product to rate. An absent package_size_g means 100g.
type scoreRequest struct {
	Nutrients    rating.NutrientProfile `json:"nutrients"`
	PackageSizeG *float64               `json:"package_size_g"`
}

func (s scoreRequest) packageSize() float64 {
	if s.PackageSizeG == nil {
		return 100
	}
	return *s.PackageSizeG
}

// Score rates the nutrient profile in the request body.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	defer timed(h.scoreHist)()

	var req scoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.Engine.Evaluate(req.Nutrients, req.packageSize())
	if errors.Is(err, rating.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("score failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type batchRequest struct {
	Items []scoreRequest `json:"items"`
}

// batchResult is one entry of a batch response: either the evaluation or the
// reason it failed.
type batchResult struct {
	Score     *rating.Score           `json:"foodatease_score,omitempty"`
	SafeLimit *rating.SafeLimitResult `json:"safe_limit,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// ScoreBatch rates several products. Results are in request order; an item
// that cannot be rated carries an error instead of failing the request.
func (h *Handler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	defer timed(h.scoreHist)()

	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "items must not be empty", http.StatusBadRequest)
		return
	}
	if h.MaxBatch > 0 && len(req.Items) > h.MaxBatch {
		http.Error(w, "too many items, max "+strconv.Itoa(h.MaxBatch), http.StatusRequestEntityTooLarge)
		return
	}

	items := make([]rating.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = rating.Item{Profile: it.Nutrients, PackageSizeG: it.packageSize()}
	}

	evs := h.Engine.EvaluateBatch(r.Context(), items, h.Workers)
	if err := r.Context().Err(); err != nil {
		slog.Warn("batch scoring cancelled", "items", len(items), "error", err)
		return
	}

	results := make([]batchResult, len(evs))
	for i := range evs {
		if evs[i].Err != nil {
			results[i].Error = evs[i].Err.Error()
			continue
		}
		results[i].Score = &evs[i].Score
		results[i].SafeLimit = &evs[i].SafeLimit
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// decodeBody reads a JSON request body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
