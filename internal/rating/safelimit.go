package rating

import (
	"fmt"
	"math"
	"strings"
)

// Nutrient names a nutrient tracked by the safe-limit calculation.
type Nutrient string

const (
	NutrientSodium       Nutrient = "sodium"
	NutrientSugar        Nutrient = "sugar"
	NutrientSaturatedFat Nutrient = "saturated_fat"
	NutrientCalories     Nutrient = "calories"
)

// DisplayName is the nutrient name with underscores replaced by spaces.
func (n Nutrient) DisplayName() string {
	return strings.ReplaceAll(string(n), "_", " ")
}

// trackedNutrients is the evaluation order of the safe-limit calculation. On
// equal daily shares the earlier nutrient is the limiting one.
var trackedNutrients = [...]Nutrient{
	NutrientSodium,
	NutrientSugar,
	NutrientSaturatedFat,
	NutrientCalories,
}

const (
	// servingSharePct is the share of a daily limit one serving may use.
	servingSharePct = 20.0

	// verySmallServingG is the serving size below which the explanation
	// warns about a very limited portion.
	verySmallServingG = 30.0

	// minPackageSizeG is the smallest package for which a whole-gram
	// serving can be recommended.
	minPackageSizeG = 1.0
)

// DailyPercentages is the share of each daily limit, in percent, consumed by
// the recommended serving.
type DailyPercentages struct {
	Sodium       float64 `json:"sodium"`
	Sugar        float64 `json:"sugar"`
	SaturatedFat float64 `json:"saturated_fat"`
	Calories     float64 `json:"calories"`
}

// SafeLimitResult is the recommended serving for one package.
type SafeLimitResult struct {
	RecommendedServingG int              `json:"recommended_serving_g"`
	LimitingFactor      Nutrient         `json:"limiting_factor"`
	ServingsPerPackage  float64          `json:"servings_per_package"`
	DailyPercentages    DailyPercentages `json:"daily_percentages"`
	ExplanationEN       string           `json:"explanation"`
	ExplanationHI       string           `json:"explanation_hindi"`
}

// SafeLimit computes the serving of p at which the most restrictive of
// sodium, sugar, saturated fat and calories reaches 20% of its daily limit,
// capped at the package size.
//
// packageSizeG must be a finite number of at least one gram; otherwise
// ErrInvalidInput is returned. Packages in (0, 1) g are rejected on purpose
// even though they are positive: the recommended serving is a whole number
// of grams in [1, package size], which is empty for a sub-gram package.
func SafeLimit(p NutrientProfile, packageSizeG float64, limits DailyLimits) (SafeLimitResult, error) {
	if math.IsNaN(packageSizeG) || math.IsInf(packageSizeG, 0) || packageSizeG < minPackageSizeG {
		return SafeLimitResult{}, fmt.Errorf("%w: package size must be at least %vg, got %v",
			ErrInvalidInput, minPackageSizeG, packageSizeG)
	}
	if err := limits.Validate(); err != nil {
		return SafeLimitResult{}, err
	}

	share := dailyShares(p.Normalize(), limits)

	limiting := 0
	for i := 1; i < len(share); i++ {
		if share[i] > share[limiting] {
			limiting = i
		}
	}

	safeG := packageSizeG
	if share[limiting] > 0 {
		safeG = (servingSharePct / share[limiting]) * 100
	}
	safeG = math.Min(safeG, packageSizeG)

	scale := safeG / 100
	res := SafeLimitResult{
		RecommendedServingG: recommendedServing(safeG, packageSizeG),
		LimitingFactor:      trackedNutrients[limiting],
		ServingsPerPackage:  1,
		DailyPercentages: DailyPercentages{
			Sodium:       roundTenth(share[0] * scale),
			Sugar:        roundTenth(share[1] * scale),
			SaturatedFat: roundTenth(share[2] * scale),
			Calories:     roundTenth(share[3] * scale),
		},
	}
	if safeG > 0 {
		res.ServingsPerPackage = roundTenth(packageSizeG / safeG)
	}
	res.ExplanationEN, res.ExplanationHI = explain(safeG, packageSizeG, res.RecommendedServingG, res.LimitingFactor)
	return res, nil
}

// dailyShares returns, in trackedNutrients order, the percentage of each
// daily limit supplied by 100g of product.
func dailyShares(p NutrientProfile, limits DailyLimits) [4]float64 {
	return [4]float64{
		(p.SodiumMg / limits.SodiumMg) * 100,
		(p.SugarG / limits.SugarG) * 100,
		(p.SaturatedFatG / limits.SaturatedFatG) * 100,
		(p.EnergyKcal / limits.EnergyKcal) * 100,
	}
}

// recommendedServing rounds safeG to whole grams, keeping the result within
// [1, packageSizeG].
func recommendedServing(safeG, packageSizeG float64) int {
	g := math.RoundToEven(safeG)
	if g > packageSizeG {
		g = math.Floor(packageSizeG)
	}
	if g < 1 {
		g = 1
	}
	return int(g)
}

// explain picks the message for the serving size. The branches are checked in
// order: whole packet, very limited portion, plain limit.
func explain(safeG, packageSizeG float64, grams int, n Nutrient) (en, hi string) {
	name := n.DisplayName()
	switch {
	case safeG >= packageSizeG:
		return "You can eat the whole packet without exceeding recommended daily limits.",
			"Pura packet kha sakte ho, daily limit cross nahi hogi."
	case safeG < verySmallServingG:
		return fmt.Sprintf("Very limited portion recommended. Just %dg due to high %s.", grams, name),
			fmt.Sprintf("Bahut kam khana chahiye. Sirf %dg kyunki %s zyada hai.", grams, name)
	default:
		return fmt.Sprintf("Limit to %dg to stay within %s limits.", grams, name),
			fmt.Sprintf("%dg tak hi khao, %s ke liye.", grams, name)
	}
}

func roundTenth(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
