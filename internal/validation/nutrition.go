package validation

import (
	"fmt"
	"math"
)

// reconciliationTolerance is the allowed relative drift between the summed
// per-ingredient calories and the reported total.
const reconciliationTolerance = 0.05

// NutritionTargets defines the acceptance bands for a single meal. All
// bounds are grams except the calorie fields; CalorieTolerancePct is a
// fraction in (0, 1).
type NutritionTargets struct {
	CalorieTarget       float64 `json:"calorie_target"`
	CalorieTolerancePct float64 `json:"calorie_tolerance_pct"`
	ProteinMinG         float64 `json:"protein_min_g"`
	ProteinMaxG         float64 `json:"protein_max_g"`
	CarbsMinG           float64 `json:"carbs_min_g"`
	CarbsMaxG           float64 `json:"carbs_max_g"`
	FatMinG             float64 `json:"fat_min_g"`
	FatMaxG             float64 `json:"fat_max_g"`
	FiberMinG           float64 `json:"fiber_min_g"`
}

// Validate checks that the targets themselves are well formed.
func (t NutritionTargets) Validate() error {
	if t.CalorieTarget <= 0 {
		return &InvalidInputError{Field: "calorie_target", Reason: "must be positive"}
	}
	if t.CalorieTolerancePct <= 0 || t.CalorieTolerancePct >= 1 {
		return &InvalidInputError{Field: "calorie_tolerance_pct", Reason: "must be in (0, 1)"}
	}
	for _, b := range []struct {
		name string
		v    float64
	}{
		{"protein_min_g", t.ProteinMinG},
		{"protein_max_g", t.ProteinMaxG},
		{"carbs_min_g", t.CarbsMinG},
		{"carbs_max_g", t.CarbsMaxG},
		{"fat_min_g", t.FatMinG},
		{"fat_max_g", t.FatMaxG},
		{"fiber_min_g", t.FiberMinG},
	} {
		if b.v < 0 {
			return &InvalidInputError{Field: b.name, Reason: "must be non-negative"}
		}
	}
	return nil
}

// ValidateNutrition checks a meal's reported macro totals against the
// target bands and reconciles the itemized ingredient breakdown against
// the reported calorie total. Pure function: no side effects on the meal.
func ValidateNutrition(meal *Meal, targets NutritionTargets) (*ValidationResult, error) {
	if err := targets.Validate(); err != nil {
		return nil, err
	}
	if err := checkMealInput(meal); err != nil {
		return nil, err
	}

	result := newResult()
	n := meal.Nutrition

	tolerance := targets.CalorieTarget * targets.CalorieTolerancePct
	if math.Abs(n.Calories-targets.CalorieTarget) > tolerance {
		result.addCritical("calorie range",
			fmt.Sprintf("%s ±%s", formatNumber(targets.CalorieTarget), formatNumber(tolerance)),
			formatNumber(n.Calories))
	}

	if n.ProteinG < targets.ProteinMinG || n.ProteinG > targets.ProteinMaxG {
		result.addCritical("protein band",
			formatRange(targets.ProteinMinG, targets.ProteinMaxG),
			formatNumber(n.ProteinG))
	}
	if n.CarbsG < targets.CarbsMinG || n.CarbsG > targets.CarbsMaxG {
		result.addCritical("carbs band",
			formatRange(targets.CarbsMinG, targets.CarbsMaxG),
			formatNumber(n.CarbsG))
	}
	if n.FatG < targets.FatMinG || n.FatG > targets.FatMaxG {
		result.addCritical("fat band",
			formatRange(targets.FatMinG, targets.FatMaxG),
			formatNumber(n.FatG))
	}
	if n.FiberG < targets.FiberMinG {
		result.addNonCritical("fiber floor",
			">= "+formatNumber(targets.FiberMinG),
			formatNumber(n.FiberG))
	}

	// Catches internally inconsistent generator output: an in-range total
	// that does not match the itemized breakdown still fails here.
	var ingredientCalories float64
	for _, ing := range meal.Ingredients {
		ingredientCalories += ing.Calories
	}
	if n.Calories > 0 {
		drift := math.Abs(ingredientCalories-n.Calories) / n.Calories
		if drift > reconciliationTolerance {
			result.addCritical("ingredient reconciliation",
				fmt.Sprintf("ingredient calories within %.0f%% of reported total %s",
					reconciliationTolerance*100, formatNumber(n.Calories)),
				formatNumber(ingredientCalories))
		}
	} else if ingredientCalories > 0 {
		result.addCritical("ingredient reconciliation",
			"reported calorie total matching itemized ingredients",
			formatNumber(ingredientCalories))
	}

	return result, nil
}

// checkMealInput rejects malformed candidates before any range checks run.
func checkMealInput(meal *Meal) error {
	if meal == nil {
		return &InvalidInputError{Field: "meal", Reason: "missing"}
	}
	if meal.Name == "" {
		return &InvalidInputError{Field: "name", Reason: "missing"}
	}
	if len(meal.Ingredients) == 0 {
		return &InvalidInputError{Field: "ingredients", Reason: "must not be empty"}
	}
	for i, ing := range meal.Ingredients {
		if ing.Name == "" {
			return &InvalidInputError{Field: fmt.Sprintf("ingredients[%d].name", i), Reason: "missing"}
		}
		if ing.Quantity < 0 {
			return &InvalidInputError{Field: fmt.Sprintf("ingredients[%d].quantity", i), Reason: "must be non-negative"}
		}
		if ing.Calories < 0 || ing.ProteinG < 0 || ing.CarbsG < 0 || ing.FatG < 0 || ing.FiberG < 0 {
			return &InvalidInputError{Field: fmt.Sprintf("ingredients[%d]", i), Reason: "macro values must be non-negative"}
		}
	}
	if n := meal.Nutrition; n.Calories < 0 || n.ProteinG < 0 || n.CarbsG < 0 || n.FatG < 0 || n.FiberG < 0 {
		return &InvalidInputError{Field: "nutrition_summary", Reason: "macro values must be non-negative"}
	}
	return nil
}
