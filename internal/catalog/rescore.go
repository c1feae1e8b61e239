package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/korjavin/foodatease/internal/rating"
)

var errNullProduct = errors.New("product entry is null")

// Failure describes a product that could not be scored.
type Failure struct {
	Index int
	ID    string
	Name  string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("product %d (%s): %v", f.Index, f.Name, f.Err)
}

// Result summarises a Rescore run.
type Result struct {
	Scored     int
	Failures   []Failure
	StarCounts map[int]int
}

// Rescore scores every product of d with engine on up to workers goroutines
// and stores the results on the products. Products that fail keep whatever
// score they had. The returned error is ctx.Err() when the run was cut short.
func Rescore(ctx context.Context, engine *rating.Engine, d *Document, workers int) (Result, error) {
	res := Result{StarCounts: make(map[int]int)}

	// idx maps positions in items back to d.Products; nil entries are not
	// scored.
	items := make([]rating.Item, 0, len(d.Products))
	idx := make([]int, 0, len(d.Products))
	for i, p := range d.Products {
		if p == nil {
			res.Failures = append(res.Failures, Failure{Index: i, Err: errNullProduct})
			continue
		}
		items = append(items, rating.Item{Profile: p.Nutrients(), PackageSizeG: p.PackageSizeG()})
		idx = append(idx, i)
	}

	evs := engine.EvaluateBatch(ctx, items, workers)

	for j, ev := range evs {
		i := idx[j]
		p := d.Products[i]
		if ev.Err != nil {
			res.Failures = append(res.Failures, Failure{Index: i, ID: p.ID(), Name: p.Name(), Err: ev.Err})
			continue
		}
		if err := p.SetEvaluation(ev); err != nil {
			res.Failures = append(res.Failures, Failure{Index: i, ID: p.ID(), Name: p.Name(), Err: err})
			continue
		}
		res.Scored++
		res.StarCounts[ev.Score.Stars]++
	}
	return res, ctx.Err()
}
