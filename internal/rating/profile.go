package rating

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Nutrient field names as they appear in product documents.
const (
	FieldEnergyKcal    = "energy_kcal"
	FieldSodiumMg      = "sodium_mg"
	FieldSugarG        = "sugar_g"
	FieldSaturatedFatG = "saturated_fat_g"
	FieldProteinG      = "protein_g"
	FieldFiberG        = "fiber_g"
)

// fieldAliases lists alternative spellings accepted on input, checked in order
// after the canonical name.
var fieldAliases = map[string][]string{
	FieldSugarG: {"sugars_g"},
}

// NutrientProfile holds the nutrient values of a product per 100g (or 100ml).
// A zero value means "absent".
type NutrientProfile struct {
	EnergyKcal    float64 `json:"energy_kcal"`
	SodiumMg      float64 `json:"sodium_mg"`
	SugarG        float64 `json:"sugar_g"`
	SaturatedFatG float64 `json:"saturated_fat_g"`
	ProteinG      float64 `json:"protein_g"`
	FiberG        float64 `json:"fiber_g"`
}

// Normalize returns a copy of p in which every negative, NaN or infinite
// value is replaced by 0.
func (p NutrientProfile) Normalize() NutrientProfile {
	return NutrientProfile{
		EnergyKcal:    sanitize(p.EnergyKcal),
		SodiumMg:      sanitize(p.SodiumMg),
		SugarG:        sanitize(p.SugarG),
		SaturatedFatG: sanitize(p.SaturatedFatG),
		ProteinG:      sanitize(p.ProteinG),
		FiberG:        sanitize(p.FiberG),
	}
}

// ProfileFromMap builds a NutrientProfile from a loosely typed map such as a
// decoded JSON object. Missing, null or unparseable fields become 0; other
// keys are ignored.
func ProfileFromMap(m map[string]any) NutrientProfile {
	get := func(field string) float64 {
		if v, ok := m[field]; ok && v != nil {
			return ParseAmount(v)
		}
		for _, alias := range fieldAliases[field] {
			if v, ok := m[alias]; ok && v != nil {
				return ParseAmount(v)
			}
		}
		return 0
	}
	return NutrientProfile{
		EnergyKcal:    get(FieldEnergyKcal),
		SodiumMg:      get(FieldSodiumMg),
		SugarG:        get(FieldSugarG),
		SaturatedFatG: get(FieldSaturatedFatG),
		ProteinG:      get(FieldProteinG),
		FiberG:        get(FieldFiberG),
	}
}

// UnmarshalJSON decodes a nutrient object leniently: numbers, numeric strings
// and nulls are all accepted and anything unusable becomes 0.
func (p *NutrientProfile) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = NutrientProfile{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("decode nutrients: %w", err)
	}
	*p = ProfileFromMap(m)
	return nil
}

// ParseAmount coerces a decoded JSON value to a non-negative finite float64.
// It returns 0 for anything that is not a usable amount.
func ParseAmount(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	return sanitize(f)
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
