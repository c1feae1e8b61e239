package metrics

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
)

func TestRegistry_WritePrometheus(t *testing.T) {
	reg := NewRegistry()
	get := reg.Register("product_get", []int64{100, 1000, math.MaxInt64})
	score := reg.Register("score", BucketsScore)

	get.Observe(50 * time.Microsecond)
	get.Observe(500 * time.Microsecond)
	get.Observe(5 * time.Millisecond) // overflow
	score.Observe(20 * time.Microsecond)

	var buf bytes.Buffer
	if err := reg.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(&buf)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	mf, ok := families[DurationMetric]
	if !ok {
		t.Fatalf("family %s missing; got %v", DurationMetric, families)
	}
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 series, got %d", len(mf.GetMetric()))
	}

	// Series are written in route order.
	m := mf.GetMetric()[0]
	if route := m.GetLabel()[0].GetValue(); route != "product_get" {
		t.Fatalf("first series route = %q; want product_get", route)
	}
	hist := m.GetHistogram()
	if hist.GetSampleCount() != 3 {
		t.Errorf("sample count: expected 3, got %d", hist.GetSampleCount())
	}
	if got, want := hist.GetSampleSum(), 0.00555; math.Abs(got-want) > 1e-9 {
		t.Errorf("sample sum: expected %v, got %v", want, got)
	}

	wantBuckets := map[float64]uint64{0.0001: 1, 0.001: 2}
	for _, b := range hist.GetBucket() {
		if math.IsInf(b.GetUpperBound(), 1) {
			if b.GetCumulativeCount() != 3 {
				t.Errorf("+Inf bucket: expected 3, got %d", b.GetCumulativeCount())
			}
			continue
		}
		want, ok := wantBuckets[b.GetUpperBound()]
		if !ok {
			t.Errorf("unexpected bucket le=%v", b.GetUpperBound())
			continue
		}
		if b.GetCumulativeCount() != want {
			t.Errorf("bucket le=%v: expected %d, got %d", b.GetUpperBound(), want, b.GetCumulativeCount())
		}
	}
}

func TestRegistry_WritePrometheus_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRegistry().WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty registry, got %q", buf.String())
	}
}
