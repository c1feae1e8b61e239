package api

import (
	"net/http"

	"github.com/korjavin/foodatease/internal/auth"
	"github.com/korjavin/foodatease/internal/metrics"
)

// RegisterRoutes registers all HTTP routes on the given mux. reg may be nil.
func RegisterRoutes(mux *http.ServeMux, keys *auth.KeySet, h *Handler, reg *metrics.Registry) {
	if reg != nil {
		h.productHist = reg.Register("product_get", metrics.BucketsLookup)
		h.searchHist = reg.Register("search", metrics.BucketsSearch)
		h.scoreHist = reg.Register("score", metrics.BucketsScore)
	}
	protected := keys.Middleware()

	// Public
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /metrics", Metrics(reg))

	// Protected: require X-API-Key header (or api_key query param)
	mux.Handle("GET /api/v1/food/barcode/{barcode}", protected(http.HandlerFunc(h.FoodByBarcode)))
	mux.Handle("GET /api/v1/food/slug/{slug}", protected(http.HandlerFunc(h.FoodBySlug)))
	mux.Handle("GET /api/v1/food/search", protected(http.HandlerFunc(h.FoodSearch)))
	mux.Handle("POST /api/v1/score", protected(http.HandlerFunc(h.Score)))
	mux.Handle("POST /api/v1/score/batch", protected(http.HandlerFunc(h.ScoreBatch)))
}
