package rating

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestNewEngine_RejectsBadLimits(t *testing.T) {
	limits := DefaultDailyLimits()
	limits.SodiumMg = -1
	if _, err := NewEngine(limits); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("NewEngine error = %v; want ErrInvalidInput", err)
	}
}

func TestEngine_CustomLimits(t *testing.T) {
	limits := DefaultDailyLimits()
	limits.SugarG = 25 // a stricter guideline table
	e, err := NewEngine(limits)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	// sugar 20g = 80% of 25g → safe 25g
	sl, err := e.SafeLimit(NutrientProfile{SugarG: 20}, 100)
	if err != nil {
		t.Fatalf("SafeLimit: %v", err)
	}
	if sl.RecommendedServingG != 25 {
		t.Errorf("RecommendedServingG = %d; want 25", sl.RecommendedServingG)
	}

	def, err := DefaultEngine().SafeLimit(NutrientProfile{SugarG: 20}, 100)
	if err != nil {
		t.Fatalf("SafeLimit: %v", err)
	}
	if def.RecommendedServingG != 50 {
		t.Errorf("default RecommendedServingG = %d; want 50", def.RecommendedServingG)
	}
}

func TestEngine_EvaluateIsIdempotent(t *testing.T) {
	e := DefaultEngine()
	p := NutrientProfile{EnergyKcal: 520, SodiumMg: 810, SugarG: 2.5, SaturatedFatG: 9, ProteinG: 6.8, FiberG: 2.2}

	first, err := e.Evaluate(p, 52)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := e.Evaluate(p, 52)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Evaluate not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestEngine_EvaluateInvalidPackage(t *testing.T) {
	_, err := DefaultEngine().Evaluate(NutrientProfile{}, 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Evaluate error = %v; want ErrInvalidInput", err)
	}
}

func TestEngine_EvaluateBatch(t *testing.T) {
	e := DefaultEngine()
	items := make([]Item, 0, 50)
	for i := 0; i < 50; i++ {
		items = append(items, Item{
			Profile:      NutrientProfile{SodiumMg: float64(i * 40), SugarG: float64(i), ProteinG: float64(i % 9)},
			PackageSizeG: float64(20 + i),
		})
	}
	items[7].PackageSizeG = -1

	got := e.EvaluateBatch(context.Background(), items, 4)
	if len(got) != len(items) {
		t.Fatalf("len = %d; want %d", len(got), len(items))
	}
	for i, it := range items {
		want, err := e.Evaluate(it.Profile, it.PackageSizeG)
		if i == 7 {
			if !errors.Is(got[i].Err, ErrInvalidInput) {
				t.Errorf("item 7 Err = %v; want ErrInvalidInput", got[i].Err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Evaluate(%d): %v", i, err)
		}
		if !reflect.DeepEqual(got[i], want) {
			t.Errorf("item %d out of order or wrong:\n got %+v\nwant %+v", i, got[i], want)
		}
	}
}

func TestEngine_EvaluateBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []Item{{PackageSizeG: 100}, {PackageSizeG: 100}, {PackageSizeG: 100}}
	got := DefaultEngine().EvaluateBatch(ctx, items, 2)
	for i, ev := range got {
		if !errors.Is(ev.Err, context.Canceled) {
			t.Errorf("item %d Err = %v; want context.Canceled", i, ev.Err)
		}
	}
}

func TestEngine_EvaluateBatchEmpty(t *testing.T) {
	if got := DefaultEngine().EvaluateBatch(context.Background(), nil, 0); len(got) != 0 {
		t.Errorf("len = %d; want 0", len(got))
	}
}
