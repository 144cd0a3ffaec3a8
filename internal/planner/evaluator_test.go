package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

func evaluatorTargets() validation.NutritionTargets {
	return validation.NutritionTargets{
		CalorieTarget:       2300,
		CalorieTolerancePct: 0.05,
		ProteinMinG:         130,
		ProteinMaxG:         160,
		CarbsMinG:           230,
		CarbsMaxG:           280,
		FatMinG:             70,
		FatMaxG:             90,
		FiberMinG:           30,
	}
}

func evaluatorRules() validation.MethodRules {
	return validation.MethodRules{
		Method: validation.MethodPressureCooker,
		RequiredPatterns: []validation.PatternRule{
			{Name: "seal", Pattern: "seal the lid", Kind: validation.PatternPhrase},
			{Name: "duration", Pattern: `high pressure for \d+ minutes`, Kind: validation.PatternRegex, After: "seal"},
		},
		MinLiquidVolumeML: 250,
	}
}

func compliantMeal(protein, cuisine string) validation.Meal {
	return validation.Meal{
		Name:           fmt.Sprintf("%s %s pot", cuisine, protein),
		CookingMethod:  validation.MethodPressureCooker,
		CuisineType:    cuisine,
		PrimaryProtein: protein,
		Ingredients: []validation.Ingredient{
			{Name: protein, Quantity: 500, Unit: validation.UnitGram, Calories: 1100, ProteinG: 95, FatG: 60},
			{Name: "brown rice", Quantity: 300, Unit: validation.UnitGram, Calories: 1000, ProteinG: 40, CarbsG: 210, FiberG: 20},
			{Name: "stock", Quantity: 500, Unit: validation.UnitMilliliter, Calories: 200, ProteinG: 10, CarbsG: 40, FatG: 18, FiberG: 12},
		},
		Instructions: []validation.Instruction{
			{Step: 1, Text: "Add everything to the pot."},
			{Step: 2, Text: "Seal the lid."},
			{Step: 3, Text: "Cook on high pressure for 25 minutes."},
		},
		Nutrition: validation.NutritionSummary{Calories: 2300, ProteinG: 145, CarbsG: 250, FatG: 78, FiberG: 32},
	}
}

func TestEvaluator(t *testing.T) {
	evaluator := NewEvaluator(evaluatorTargets(), evaluatorRules(), validation.DefaultVarietyConfig())

	t.Run("should combine nutrition and format for a meal", func(t *testing.T) {
		meal := compliantMeal("chicken", "american")
		eval, err := evaluator.EvaluateMeal(&meal)

		require.NoError(t, err)
		assert.True(t, eval.Combined().Passed)
	})

	t.Run("should evaluate every day and variety for a plan", func(t *testing.T) {
		proteins := []string{"chicken", "beef", "fish", "pork", "tofu", "lamb", "shrimp"}
		cuisines := []string{"italian", "mexican", "thai", "indian", "japanese", "greek", "american"}
		plan := &validation.Plan{Days: make([]validation.Meal, validation.PlanDays)}
		for i := range plan.Days {
			plan.Days[i] = compliantMeal(proteins[i], cuisines[i])
		}

		eval, err := evaluator.EvaluatePlan(plan)

		require.NoError(t, err)
		require.Len(t, eval.DayResults, validation.PlanDays)
		assert.Empty(t, eval.FailingDays())
		assert.Empty(t, eval.VarietyFailures)
		assert.Equal(t, 7, eval.Variety.UniqueProteinCount)
	})

	t.Run("should surface the failing day", func(t *testing.T) {
		proteins := []string{"chicken", "beef", "fish", "pork", "tofu", "lamb", "shrimp"}
		cuisines := []string{"italian", "mexican", "thai", "indian", "japanese", "greek", "american"}
		plan := &validation.Plan{Days: make([]validation.Meal, validation.PlanDays)}
		for i := range plan.Days {
			plan.Days[i] = compliantMeal(proteins[i], cuisines[i])
		}
		plan.Days[3].Nutrition.ProteinG = 90

		eval, err := evaluator.EvaluatePlan(plan)

		require.NoError(t, err)
		assert.Equal(t, []int{3}, eval.FailingDays())
	})

	t.Run("should propagate invalid input", func(t *testing.T) {
		plan := &validation.Plan{Days: make([]validation.Meal, 3)}

		_, err := evaluator.EvaluatePlan(plan)

		var invalid *validation.InvalidInputError
		require.ErrorAs(t, err, &invalid)
	})
}
