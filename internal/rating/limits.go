package rating

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a precondition violation such as a non-positive
// package size.
var ErrInvalidInput = errors.New("rating: invalid input")

// DailyLimits is a table of daily reference values for an adult.
type DailyLimits struct {
	EnergyKcal    float64 `json:"energy_kcal" yaml:"energy_kcal"`
	SodiumMg      float64 `json:"sodium_mg" yaml:"sodium_mg"`
	SugarG        float64 `json:"sugar_g" yaml:"sugar_g"`
	SaturatedFatG float64 `json:"saturated_fat_g" yaml:"saturated_fat_g"`
	ProteinG      float64 `json:"protein_g" yaml:"protein_g"`
	FiberG        float64 `json:"fiber_g" yaml:"fiber_g"`
}

// DefaultDailyLimits returns the ICMR-NIN 2024 reference values for Indian
// adults. Sugar is the free-sugar limit (10% of energy), saturated fat is
// capped below 10% of energy.
func DefaultDailyLimits() DailyLimits {
	return DailyLimits{
		EnergyKcal:    2000,
		SodiumMg:      2000,
		SugarG:        50,
		SaturatedFatG: 22,
		ProteinG:      55,
		FiberG:        30,
	}
}

// Validate checks that the four nutrients used by the safe-limit calculation
// have positive reference values.
func (l DailyLimits) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{FieldEnergyKcal, l.EnergyKcal},
		{FieldSodiumMg, l.SodiumMg},
		{FieldSugarG, l.SugarG},
		{FieldSaturatedFatG, l.SaturatedFatG},
	}
	for _, c := range checks {
		if !(c.v > 0) {
			return fmt.Errorf("%w: daily limit %s must be positive, got %v", ErrInvalidInput, c.name, c.v)
		}
	}
	return nil
}
