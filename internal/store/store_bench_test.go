package store_test

import (
	"fmt"
	"testing"

	"github.com/korjavin/foodatease/internal/rating"
	"github.com/korjavin/foodatease/internal/store"
)

// seedProducts writes n products into the store via WriteBatch and returns
// the barcode of the middle product for use in point-lookup benchmarks.
func seedProducts(tb testing.TB, s *store.Store, n int) (midBarcode string) {
	tb.Helper()
	batch := s.NewWriteBatch()

	names := []string{
		"Aloo Bhujia", "Butter Chicken Masala", "Toned Milk", "Atta Bread",
		"Mango Lassi", "Roasted Makhana", "Dark Chocolate",
		"Poha Mix", "Tomato Ketchup", "Paneer Tikka",
	}
	e := rating.DefaultEngine()

	for i := 0; i < n; i++ {
		barcode := fmt.Sprintf("%013d", i+1)
		name := names[i%len(names)] + fmt.Sprintf(" %d", i)
		p := store.Product{
			Barcode:      barcode,
			Name:         name,
			PackageSizeG: float64(20 + i%480),
			Nutrients: rating.NutrientProfile{
				EnergyKcal:    float64(50 + i%500),
				SodiumMg:      float64(i % 1200),
				SugarG:        float64(i%60) + 0.5,
				SaturatedFatG: float64(i%15) + 0.1,
				ProteinG:      float64(i%30) + 0.5,
				FiberG:        float64(i % 8),
			},
		}
		ev, err := e.Evaluate(p.Nutrients, p.PackageSizeG)
		if err != nil {
			tb.Fatalf("evaluate: %v", err)
		}
		p.Score, p.SafeLimit = &ev.Score, &ev.SafeLimit
		if err := batch.Put(p); err != nil {
			tb.Fatalf("put: %v", err)
		}
		if i == n/2 {
			midBarcode = barcode
		}
		// Flush every 5000 to match importer behaviour
		if batch.Len() >= 5000 {
			if err := batch.Flush(); err != nil {
				tb.Fatalf("flush: %v", err)
			}
		}
	}
	if err := batch.Close(); err != nil {
		tb.Fatalf("batch close: %v", err)
	}
	return midBarcode
}

// openBenchStore creates a seeded store, closes it (write mode), then reopens
// read-only to simulate the real server environment.
func openBenchStore(tb testing.TB, n int) (*store.Store, string) {
	tb.Helper()
	dir := tb.TempDir()

	ws, err := store.Create(dir)
	if err != nil {
		tb.Fatalf("create store: %v", err)
	}
	mid := seedProducts(tb, ws, n)
	if err := ws.Close(); err != nil {
		tb.Fatalf("close write store: %v", err)
	}

	rs, err := store.OpenReadOnly(dir)
	if err != nil {
		tb.Fatalf("open read-only store: %v", err)
	}
	tb.Cleanup(func() { rs.Close() })
	return rs, mid
}

func BenchmarkGet(b *testing.B) {
	s, barcode := openBenchStore(b, 10_000)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, found, err := s.Get(barcode)
		if err != nil {
			b.Fatalf("Get: %v", err)
		}
		if !found {
			b.Fatalf("barcode %q not found", barcode)
		}
	}
}

func BenchmarkSearch_MinStars(b *testing.B) {
	s, _ := openBenchStore(b, 10_000)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := s.Search("masala", store.SearchOptions{Limit: 20, MinStars: 3}); err != nil {
			b.Fatalf("Search: %v", err)
		}
	}
}

func BenchmarkSearch_CommonTerm(b *testing.B) {
	s, _ := openBenchStore(b, 10_000)
	b.ResetTimer()
	b.ReportAllocs()

	queries := []string{"bhujia", "butter chicken", "milk", "chocolate"}
	for i := 0; i < b.N; i++ {
		q := queries[i%len(queries)]
		_, err := s.Search(q, store.SearchOptions{Limit: 20})
		if err != nil {
			b.Fatalf("Search(%q): %v", q, err)
		}
	}
}

func BenchmarkSearch_FuzzyTerm(b *testing.B) {
	s, _ := openBenchStore(b, 10_000)
	b.ResetTimer()
	b.ReportAllocs()

	// Intentional typos to exercise the fuzzy path
	queries := []string{"buter chiken", "makhna", "tomatto ketchap", "panner"}
	for i := 0; i < b.N; i++ {
		q := queries[i%len(queries)]
		_, err := s.Search(q, store.SearchOptions{Limit: 20})
		if err != nil {
			b.Fatalf("Search(%q): %v", q, err)
		}
	}
}

// Sanity check: ensure seeded data is retrievable (not run by bench runner).
func TestBenchSeed_Sanity(t *testing.T) {
	s, barcode := openBenchStore(t, 100)
	p, found, err := s.Get(barcode)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("barcode %q not found after seeding", barcode)
	}
	if p.Score == nil || p.SafeLimit == nil {
		t.Fatalf("seeded product %q has no rating", barcode)
	}
	if p.SafeLimit.RecommendedServingG > int(p.PackageSizeG) {
		t.Errorf("serving %dg exceeds package %vg", p.SafeLimit.RecommendedServingG, p.PackageSizeG)
	}
}
