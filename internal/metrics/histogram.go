package metrics

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram is a fixed-bucket latency histogram with lock-free observation.
// Bucket boundaries are upper bounds in microseconds; the last bound must be
// math.MaxInt64 to act as the catch-all bucket.
type Histogram struct {
	bounds    []int64        // upper bounds in microseconds
	counts    []atomic.Int64 // one counter per bucket
	total     atomic.Int64   // total number of observations
	sumMicros atomic.Int64
}

// NewHistogram creates a Histogram with the given bucket upper bounds
// (in microseconds). The last element should be math.MaxInt64.
func NewHistogram(boundsMicros []int64) *Histogram {
	h := &Histogram{
		bounds: make([]int64, len(boundsMicros)),
		counts: make([]atomic.Int64, len(boundsMicros)),
	}
	copy(h.bounds, boundsMicros)
	return h
}

// Observe records a single latency measurement. Lock-free, no allocation.
func (h *Histogram) Observe(d time.Duration) {
	micros := d.Microseconds()
	h.sumMicros.Add(micros)
	for i, bound := range h.bounds {
		if micros <= bound {
			h.counts[i].Add(1)
			h.total.Add(1)
			return
		}
	}
	// Overflow: add to last bucket
	h.counts[len(h.counts)-1].Add(1)
	h.total.Add(1)
}

// Since observes the time elapsed since start. Meant for defer.
func (h *Histogram) Since(start time.Time) {
	h.Observe(time.Since(start))
}

// Snapshot captures a consistent view of the histogram and computes percentiles.
type Snapshot struct {
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Mean  time.Duration `json:"mean"`
	Total int64         `json:"total"`
}

// Snapshot returns a point-in-time snapshot of the histogram.
func (h *Histogram) Snapshot() Snapshot {
	total := h.total.Load()
	if total == 0 {
		return Snapshot{}
	}

	counts := h.loadCounts()
	return Snapshot{
		P50:   percentile(h.bounds, counts, total, 50),
		P95:   percentile(h.bounds, counts, total, 95),
		P99:   percentile(h.bounds, counts, total, 99),
		Mean:  time.Duration(h.sumMicros.Load()/total) * time.Microsecond,
		Total: total,
	}
}

func (h *Histogram) loadCounts() []int64 {
	counts := make([]int64, len(h.counts))
	for i := range h.counts {
		counts[i] = h.counts[i].Load()
	}
	return counts
}

// percentile computes the pth percentile duration from bucket data.
// Returns the upper bound of the bucket that contains the pth percentile.
func percentile(bounds []int64, counts []int64, total int64, p int) time.Duration {
	target := int64(math.Ceil(float64(total) * float64(p) / 100.0))
	var cumulative int64
	for i, c := range counts {
		cumulative += c
		if cumulative >= target {
			bound := bounds[i]
			if bound == math.MaxInt64 {
				// Return the previous bound as a best-effort upper estimate
				if i > 0 {
					bound = bounds[i-1]
				} else {
					bound = 0
				}
			}
			return time.Duration(bound) * time.Microsecond
		}
	}
	return 0
}

// Registry holds a named set of histograms.
type Registry struct {
	mu    sync.RWMutex
	hists map[string]*Histogram
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{hists: make(map[string]*Histogram)}
}

// Register creates and stores a named Histogram. If the name already exists the
// existing histogram is returned unchanged.
func (r *Registry) Register(name string, bounds []int64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hists[name]; ok {
		return h
	}
	h := NewHistogram(bounds)
	r.hists[name] = h
	return h
}

// Snapshot returns snapshots for all registered histograms keyed by name.
func (r *Registry) Snapshot() map[string]Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Snapshot, len(r.hists))
	for name, h := range r.hists {
		out[name] = h.Snapshot()
	}
	return out
}

// names returns the registered names in sorted order.
func (r *Registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hists))
	for name := range r.hists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) get(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hists[name]
}

// Pre-defined bucket sets (upper bounds in microseconds).

// BucketsLookup suits fast point-lookup operations (sub-millisecond expected).
var BucketsLookup = []int64{50, 100, 250, 500, 750, 1000, 1500, 2000, 5000, 10000, math.MaxInt64}

// BucketsSearch suits search operations (multi-millisecond expected).
var BucketsSearch = []int64{500, 1000, 2500, 5000, 10000, 15000, 20000, 30000, 50000, 100000, math.MaxInt64}

// BucketsScore suits scoring requests, which do no I/O beyond decoding the
// body. Batch requests land in the upper buckets.
var BucketsScore = []int64{10, 25, 50, 100, 250, 500, 1000, 2500, 10000, 50000, math.MaxInt64}
