package rating

import (
	"context"
	"runtime"
	"sync"
)

// Engine rates products against a fixed DailyLimits table. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	limits DailyLimits
}

// NewEngine returns an Engine using limits. The table is validated once here.
func NewEngine(limits DailyLimits) (*Engine, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Engine{limits: limits}, nil
}

// DefaultEngine returns an Engine using DefaultDailyLimits.
func DefaultEngine() *Engine {
	return &Engine{limits: DefaultDailyLimits()}
}

// Limits returns the reference table the engine was built with.
func (e *Engine) Limits() DailyLimits { return e.limits }

// Score rates p. It never fails: unusable nutrient values count as 0.
func (e *Engine) Score(p NutrientProfile) Score {
	return Rate(p)
}

// SafeLimit computes the recommended serving of p for a package of
// packageSizeG grams. Sub-gram packages are invalid input, like non-positive
// ones; see the package-level SafeLimit.
func (e *Engine) SafeLimit(p NutrientProfile, packageSizeG float64) (SafeLimitResult, error) {
	return SafeLimit(p, packageSizeG, e.limits)
}

// Evaluation is the combined output for one product.
type Evaluation struct {
	Score     Score           `json:"foodatease_score"`
	SafeLimit SafeLimitResult `json:"safe_limit"`

	// Err is set by EvaluateBatch when the item could not be evaluated.
	Err error `json:"-"`
}

// Evaluate runs Score and SafeLimit over the same profile.
func (e *Engine) Evaluate(p NutrientProfile, packageSizeG float64) (Evaluation, error) {
	sl, err := e.SafeLimit(p, packageSizeG)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Score: e.Score(p), SafeLimit: sl}, nil
}

// Item is one input of EvaluateBatch.
type Item struct {
	Profile      NutrientProfile `json:"nutrients"`
	PackageSizeG float64         `json:"package_size_g"`
}

// EvaluateBatch evaluates items on up to workers goroutines (GOMAXPROCS when
// workers <= 0). Results are in input order; an item that fails, or that was
// not reached before ctx was cancelled, carries the error in its Err field.
func (e *Engine) EvaluateBatch(ctx context.Context, items []Item, workers int) []Evaluation {
	out := make([]Evaluation, len(items))
	if len(items) == 0 {
		return out
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					out[i] = Evaluation{Err: err}
					continue
				}
				ev, err := e.Evaluate(items[i].Profile, items[i].PackageSizeG)
				if err != nil {
					ev.Err = err
				}
				out[i] = ev
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
