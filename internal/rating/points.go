package rating

// BaselineBreakdown holds the per-nutrient baseline (negative) points.
type BaselineBreakdown struct {
	Energy       int `json:"energy"`
	Sodium       int `json:"sodium"`
	Sugar        int `json:"sugar"`
	SaturatedFat int `json:"saturated_fat"`
}

// Total is the sum of the four sub-scores, in [0,40].
func (b BaselineBreakdown) Total() int {
	return b.Energy + b.Sodium + b.Sugar + b.SaturatedFat
}

// ModifyingBreakdown holds the per-nutrient modifying (positive) points.
type ModifyingBreakdown struct {
	Protein int `json:"protein"`
	Fiber   int `json:"fiber"`
}

// Total is the sum of the two sub-scores, in [0,10].
func (m ModifyingBreakdown) Total() int {
	return m.Protein + m.Fiber
}

// Baseline grades the unfavourable nutrients of p. Higher is worse.
func Baseline(p NutrientProfile) BaselineBreakdown {
	p = p.Normalize()
	return BaselineBreakdown{
		Energy:       energyTable.Points(p.EnergyKcal),
		Sodium:       sodiumTable.Points(p.SodiumMg),
		Sugar:        sugarTable.Points(p.SugarG),
		SaturatedFat: satFatTable.Points(p.SaturatedFatG),
	}
}

// BaselinePoints returns Baseline(p).Total().
func BaselinePoints(p NutrientProfile) int {
	return Baseline(p).Total()
}

// Modifying grades the favourable nutrients of p. Higher is better.
//
// The INR scheme withholds protein points when baseline >= 11 and the
// fruit/vegetable/nut content is under 80%. Packaged foods are assumed to be
// below that content, and the rule is not applied.
func Modifying(p NutrientProfile) ModifyingBreakdown {
	p = p.Normalize()
	return ModifyingBreakdown{
		Protein: proteinTable.Points(p.ProteinG),
		Fiber:   fiberTable.Points(p.FiberG),
	}
}

// ModifyingPoints returns Modifying(p).Total().
func ModifyingPoints(p NutrientProfile) int {
	return Modifying(p).Total()
}
