// Package rating computes the FoodAtEase nutrition rating of a packaged food
// product from its per-100g nutrient values, following the FSSAI Indian
// Nutrition Rating (INR) points scheme.
//
// The package is pure: every function is deterministic over its inputs and
// safe for concurrent use. The stages are
//
//   - baseline points: energy, sodium, sugar and saturated fat, 0–10 each
//   - modifying points: protein and fiber, 0–5 each
//   - classification: INR score → stars → grade, plus limiting factors
//   - safe limit: the serving at which the most restrictive nutrient reaches
//     20% of its daily reference value
//
// Engine bundles the stages with an injected DailyLimits table.
package rating
