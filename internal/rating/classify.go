package rating

import (
	"fmt"
	"strconv"
)

// Grade is the letter form of a star rating.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// NoMajorConcerns is the only limiting factor reported when no nutrient
// crosses its display threshold.
const NoMajorConcerns = "No major concerns"

// starSteps maps an INR score to stars. The first step whose max is >= the
// score wins; anything above the last step is one star.
var starSteps = []struct {
	max   int
	stars int
}{
	{-1, 5},
	{2, 4},
	{10, 3},
	{18, 2},
}

var gradeByStars = map[int]Grade{
	5: GradeA,
	4: GradeB,
	3: GradeC,
	2: GradeD,
	1: GradeF,
}

// Limiting factor display thresholds, per 100g. A value strictly above its
// threshold is reported.
const (
	highSodiumMg      = 400
	highSugarG        = 15
	highSaturatedFatG = 5
	highEnergyKcal    = 400
)

// Score is the rating of one product.
type Score struct {
	Stars           int      `json:"stars"`
	Grade           Grade    `json:"grade"`
	INRScore        int      `json:"inr_score"`
	BaselinePoints  int      `json:"baseline_points"`
	ModifyingPoints int      `json:"modifying_points"`
	LimitingFactors []string `json:"limiting_factors"`
}

// Rate runs the baseline, modifying and classification stages over p.
func Rate(p NutrientProfile) Score {
	return Classify(BaselinePoints(p), ModifyingPoints(p), p)
}

// Classify turns baseline and modifying points into a Score. The INR score is
// not clamped and can be negative.
func Classify(baseline, modifying int, p NutrientProfile) Score {
	inr := baseline - modifying
	stars := StarsFor(inr)
	return Score{
		Stars:           stars,
		Grade:           GradeFor(stars),
		INRScore:        inr,
		BaselinePoints:  baseline,
		ModifyingPoints: modifying,
		LimitingFactors: LimitingFactors(p),
	}
}

// StarsFor converts an INR score to a 1–5 star rating. Lower scores earn
// more stars.
func StarsFor(inr int) int {
	for _, s := range starSteps {
		if inr <= s.max {
			return s.stars
		}
	}
	return 1
}

// GradeFor returns the letter grade for stars. Out-of-range input grades F.
func GradeFor(stars int) Grade {
	if g, ok := gradeByStars[stars]; ok {
		return g
	}
	return GradeF
}

// LimitingFactors lists the nutrients of p that exceed their display
// threshold, in the order sodium, sugar, saturated fat, energy. The result is
// never empty.
func LimitingFactors(p NutrientProfile) []string {
	p = p.Normalize()
	var factors []string
	if p.SodiumMg > highSodiumMg {
		factors = append(factors, fmt.Sprintf("High sodium (%smg per 100g)", formatAmount(p.SodiumMg)))
	}
	if p.SugarG > highSugarG {
		factors = append(factors, fmt.Sprintf("High sugar (%sg per 100g)", formatAmount(p.SugarG)))
	}
	if p.SaturatedFatG > highSaturatedFatG {
		factors = append(factors, fmt.Sprintf("High saturated fat (%sg per 100g)", formatAmount(p.SaturatedFatG)))
	}
	if p.EnergyKcal > highEnergyKcal {
		factors = append(factors, fmt.Sprintf("High calorie density (%skcal per 100g)", formatAmount(p.EnergyKcal)))
	}
	if len(factors) == 0 {
		return []string{NoMajorConcerns}
	}
	return factors
}

// formatAmount renders v with the shortest representation that round-trips,
// so 450 prints as "450" and 12.5 as "12.5".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
