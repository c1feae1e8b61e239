package rating

// Table is an ascending step function from a nutrient amount to points.
// Bucket k covers (bounds[k-1], bounds[k]]; an amount above every bound
// scores len(bounds).
type Table struct {
	name   string
	bounds []float64
}

// Points returns the bucket index of v. A value equal to a bound falls into
// the lower-scoring bucket.
func (t Table) Points(v float64) int {
	for i, bound := range t.bounds {
		if v <= bound {
			return i
		}
	}
	return len(t.bounds)
}

// Max is the highest score the table can produce.
func (t Table) Max() int { return len(t.bounds) }

// Name identifies the nutrient the table grades.
func (t Table) Name() string { return t.name }

// Bounds returns a copy of the bucket upper bounds.
func (t Table) Bounds() []float64 {
	out := make([]float64, len(t.bounds))
	copy(out, t.bounds)
	return out
}

// Baseline tables, 0–10 points each.
var (
	energyTable = Table{FieldEnergyKcal, []float64{80, 160, 240, 320, 400, 480, 560, 640, 720, 800}}
	sodiumTable = Table{FieldSodiumMg, []float64{90, 180, 270, 360, 450, 540, 630, 720, 810, 900}}
	sugarTable  = Table{FieldSugarG, []float64{4.5, 9, 13.5, 18, 22.5, 27, 31, 36, 40, 45}}
	satFatTable = Table{FieldSaturatedFatG, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
)

// Modifying tables, 0–5 points each.
var (
	proteinTable = Table{FieldProteinG, []float64{1.6, 3.2, 4.8, 6.4, 8.0}}
	fiberTable   = Table{FieldFiberG, []float64{0.9, 1.9, 2.8, 3.7, 4.7}}
)

// BaselineTables returns the energy, sodium, sugar and saturated fat tables in
// evaluation order.
func BaselineTables() []Table {
	return []Table{energyTable, sodiumTable, sugarTable, satFatTable}
}

// ModifyingTables returns the protein and fiber tables.
func ModifyingTables() []Table {
	return []Table{proteinTable, fiberTable}
}
