package store

import (
	"reflect"
	"strings"
	"testing"

	"github.com/korjavin/foodatease/internal/rating"
)

func TestProductEncodeDecode(t *testing.T) {
	want := rated(t, Product{
		Slug:         "haldiram-s-aloo-bhujia",
		Name:         "Aloo Bhujia",
		Brand:        "Haldiram's",
		Category:     "Namkeen",
		PackageSizeG: 200,
		Nutrients: rating.NutrientProfile{
			EnergyKcal: 597, SodiumMg: 890, SugarG: 2.1, SaturatedFatG: 13, ProteinG: 11.6, FiberG: 4.2,
		},
	})

	var got Product
	if err := got.Decode(want.Encode()); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestProductDecode_NegativeINRAndUnrated(t *testing.T) {
	p := Product{Name: "Sattu", PackageSizeG: 500, Score: &rating.Score{
		Stars: 5, Grade: rating.GradeA, INRScore: -7, ModifyingPoints: 9, BaselinePoints: 2,
		LimitingFactors: []string{rating.NoMajorConcerns},
	}}
	var got Product
	if err := got.Decode(p.Encode()); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Score == nil || got.Score.INRScore != -7 {
		t.Fatalf("Score = %+v; want INRScore -7", got.Score)
	}
	if got.SafeLimit != nil {
		t.Errorf("SafeLimit = %+v; want nil", got.SafeLimit)
	}
}

func TestProductDecode_Errors(t *testing.T) {
	full := rated(t, Product{Name: "Rusk", PackageSizeG: 300, Nutrients: rating.NutrientProfile{SugarG: 20}}).Encode()

	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"empty", nil, "read version"},
		{"wrong version", []byte{1}, "unsupported schema version 1"},
		{"truncated", full[:len(full)-3], "read safe limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p Product
			err := p.Decode(tc.data)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Decode error = %v; want containing %q", err, tc.wantErr)
			}
		})
	}
}
