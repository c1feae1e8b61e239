package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/korjavin/foodatease/internal/rating"
)

const (
	kjPerKcal = 4.184

	// defaultPackageSizeG is used when the quantity field carries no number.
	defaultPackageSizeG = 100
)

// nonFoodTerms mark products that slipped into the food dump.
var nonFoodTerms = []string{"pet food", "dog food", "cat food", "shampoo", "soap", "detergent", "cosmetic"}

var quantityNumber = regexp.MustCompile(`\d+`)

// OFFProduct is the minimal subset of an Open Food Facts JSONL record.
type OFFProduct struct {
	Code             string         `json:"code"`
	ProductName      string         `json:"product_name"`
	ProductNameEn    string         `json:"product_name_en"`
	GenericName      string         `json:"generic_name"`
	ShortDescription string         `json:"short_description"`
	Brands           string         `json:"brands"`
	Categories       string         `json:"categories"`
	Quantity         any            `json:"quantity"`
	Nutriments       map[string]any `json:"nutriments"`
}

// Name returns the best available product name using the fallback order:
// product_name → product_name_en → generic_name → short_description → "".
func (p *OFFProduct) Name() string {
	for _, n := range []string{p.ProductName, p.ProductNameEn, p.GenericName, p.ShortDescription} {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return ""
}

// Brand returns the first brand of the comma-separated brands field.
func (p *OFFProduct) Brand() string {
	first, _, _ := strings.Cut(p.Brands, ",")
	return strings.TrimSpace(first)
}

// IsFood reports false for records whose name marks them as pet food,
// toiletries or cleaning products.
func (p *OFFProduct) IsFood() bool {
	name := strings.ToLower(p.Name())
	for _, term := range nonFoodTerms {
		if strings.Contains(name, term) {
			return false
		}
	}
	return true
}

// HasNutrition reports whether the record carries energy or protein data,
// the minimum needed for a meaningful rating.
func (p *OFFProduct) HasNutrition() bool {
	for _, key := range []string{"energy-kcal_100g", "energy_100g", "energy-kj_100g", "proteins_100g"} {
		if v, ok := extractFloat(p.Nutriments, key); ok && v > 0 {
			return true
		}
	}
	return false
}

// PackageSizeG returns the first integer found in the quantity field
// ("200 g", "1 x 400g"), or 100 when there is none.
func (p *OFFProduct) PackageSizeG() float64 {
	var q string
	switch x := p.Quantity.(type) {
	case string:
		q = x
	case float64:
		q = strconv.FormatFloat(x, 'f', 0, 64)
	}
	m := quantityNumber.FindString(q)
	if m == "" {
		return defaultPackageSizeG
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return defaultPackageSizeG
	}
	return float64(n)
}

// Profile extracts the per-100g nutrients used for rating. Missing or
// implausible values become 0.
func (p *OFFProduct) Profile() rating.NutrientProfile {
	return rating.NutrientProfile{
		EnergyKcal:    p.kcal100g(),
		SodiumMg:      p.sodiumMg100g(),
		SugarG:        p.grams100g("sugars_100g"),
		SaturatedFatG: p.grams100g("saturated-fat_100g"),
		ProteinG:      p.grams100g("proteins_100g"),
		FiberG:        p.grams100g("fiber_100g"),
	}
}

// kcal100g prefers energy-kcal_100g and falls back to energy-kj_100g (or the
// unitless energy_100g, which OFF stores in kJ) divided by 4.184.
func (p *OFFProduct) kcal100g() float64 {
	if v, ok := extractFloat(p.Nutriments, "energy-kcal_100g"); ok {
		return validateNutriment(v, 0, 10000)
	}
	for _, key := range []string{"energy-kj_100g", "energy_100g"} {
		if v, ok := extractFloat(p.Nutriments, key); ok {
			return validateNutriment(v/kjPerKcal, 0, 10000)
		}
	}
	return 0
}

// sodiumMg100g reads sodium_100g. OFF stores it in grams; values under 10
// are taken as grams and converted to milligrams.
func (p *OFFProduct) sodiumMg100g() float64 {
	v, ok := extractFloat(p.Nutriments, "sodium_100g")
	if !ok {
		return 0
	}
	if v < 10 {
		v *= 1000
	}
	return validateNutriment(v, 0, 100_000)
}

func (p *OFFProduct) grams100g(key string) float64 {
	v, ok := extractFloat(p.Nutriments, key)
	if !ok {
		return 0
	}
	return validateNutriment(v, 0, 100)
}

// validateNutriment returns 0 if v is outside [min, max], otherwise v.
func validateNutriment(v, min, max float64) float64 {
	if math.IsNaN(v) || v < min || v > max {
		return 0
	}
	return v
}

// extractFloat coerces a nutriments map value to float64.
func extractFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
