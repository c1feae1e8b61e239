package rating

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want float64
	}{
		{"float", 12.5, 12.5},
		{"int", 7, 7},
		{"json number", json.Number("3.25"), 3.25},
		{"numeric string", " 42.0 ", 42},
		{"garbage string", "n/a", 0},
		{"nil", nil, 0},
		{"negative", -3.0, 0},
		{"NaN", math.NaN(), 0},
		{"infinity", math.Inf(1), 0},
		{"bool", true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseAmount(tc.v); got != tc.want {
				t.Errorf("ParseAmount(%v) = %v; want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestProfileFromMap(t *testing.T) {
	m := map[string]any{
		"energy_kcal":     "480",
		"sodium_mg":       nil,
		"sugars_g":        18.0,
		"saturated_fat_g": -2.0,
		"protein_g":       json.Number("6.1"),
		"carbohydrates_g": 60.0, // ignored
	}
	got := ProfileFromMap(m)
	want := NutrientProfile{EnergyKcal: 480, SugarG: 18, ProteinG: 6.1}
	if got != want {
		t.Errorf("ProfileFromMap() = %+v; want %+v", got, want)
	}
}

func TestProfileFromMap_CanonicalSugarWins(t *testing.T) {
	got := ProfileFromMap(map[string]any{"sugar_g": 5.0, "sugars_g": 9.0})
	if got.SugarG != 5 {
		t.Errorf("SugarG = %v; want 5", got.SugarG)
	}
}

func TestNutrientProfile_UnmarshalJSON(t *testing.T) {
	var p NutrientProfile
	data := []byte(`{"energy_kcal":"120.5","sodium_mg":null,"sugar_g":"abc","fiber_g":3,"protein_g":4}`)
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := NutrientProfile{EnergyKcal: 120.5, FiberG: 3, ProteinG: 4}
	if p != want {
		t.Errorf("got %+v; want %+v", p, want)
	}

	if err := json.Unmarshal([]byte(`[1,2]`), &p); err == nil {
		t.Error("expected error for non-object nutrients")
	}
}
