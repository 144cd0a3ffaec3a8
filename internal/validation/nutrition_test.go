package validation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func omadTargets() NutritionTargets {
	return NutritionTargets{
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

// testMeal builds a meal whose ingredient calories sum exactly to the
// reported total.
func testMeal() *Meal {
	return &Meal{
		Name:           "Pressure Cooker Chicken and Rice",
		CookingMethod:  MethodPressureCooker,
		CuisineType:    "american",
		PrimaryProtein: "chicken",
		Ingredients: []Ingredient{
			{Name: "chicken thighs", Quantity: 500, Unit: UnitGram, Calories: 1100, ProteinG: 95, FatG: 60},
			{Name: "brown rice", Quantity: 300, Unit: UnitGram, Calories: 1000, ProteinG: 40, CarbsG: 210, FiberG: 20},
			{Name: "vegetables", Quantity: 250, Unit: UnitGram, Calories: 200, ProteinG: 10, CarbsG: 40, FatG: 18, FiberG: 12},
			{Name: "water", Quantity: 500, Unit: UnitMilliliter},
		},
		Instructions: []Instruction{
			{Step: 1, Text: "Add ingredients and 500 ml water to the pot."},
			{Step: 2, Text: "Seal the lid and set the valve to sealing."},
			{Step: 3, Text: "Cook on high pressure for 25 minutes."},
		},
		Nutrition: NutritionSummary{Calories: 2300, ProteinG: 145, CarbsG: 250, FatG: 78, FiberG: 32},
	}
}

func TestValidateNutrition(t *testing.T) {
	t.Run("should pass meal within all bands", func(t *testing.T) {
		result, err := ValidateNutrition(testMeal(), omadTargets())

		require.NoError(t, err)
		assert.True(t, result.Passed)
		assert.Empty(t, result.CriticalFailures)
		assert.Empty(t, result.NonCriticalFailures)
	})

	t.Run("should fail protein band with expected range", func(t *testing.T) {
		meal := testMeal()
		meal.Nutrition.ProteinG = 120

		result, err := ValidateNutrition(meal, omadTargets())

		require.NoError(t, err)
		assert.False(t, result.Passed)
		require.Len(t, result.CriticalFailures, 1)
		assert.Equal(t, "protein band", result.CriticalFailures[0].Check)
		assert.Equal(t, "130-160", result.CriticalFailures[0].Expected)
		assert.Equal(t, "120", result.CriticalFailures[0].Actual)
	})

	t.Run("should fail calorie range outside tolerance", func(t *testing.T) {
		meal := testMeal()
		meal.Nutrition.Calories = 2600
		for i := range meal.Ingredients {
			meal.Ingredients[i].Calories *= 2600.0 / 2300.0
		}

		result, err := ValidateNutrition(meal, omadTargets())

		require.NoError(t, err)
		assert.False(t, result.Passed)
		require.Len(t, result.CriticalFailures, 1)
		assert.Equal(t, "calorie range", result.CriticalFailures[0].Check)
	})

	t.Run("should record fiber floor as non-critical only", func(t *testing.T) {
		meal := testMeal()
		meal.Nutrition.FiberG = 20

		result, err := ValidateNutrition(meal, omadTargets())

		require.NoError(t, err)
		assert.True(t, result.Passed)
		assert.Empty(t, result.CriticalFailures)
		require.Len(t, result.NonCriticalFailures, 1)
		assert.Equal(t, "fiber floor", result.NonCriticalFailures[0].Check)
	})

	t.Run("should fail reconciliation when breakdown disagrees with total", func(t *testing.T) {
		meal := testMeal()
		meal.Ingredients[0].Calories = 600 // totals still in range, breakdown now off

		result, err := ValidateNutrition(meal, omadTargets())

		require.NoError(t, err)
		assert.False(t, result.Passed)
		require.Len(t, result.CriticalFailures, 1)
		assert.Equal(t, "ingredient reconciliation", result.CriticalFailures[0].Check)
	})

	t.Run("should pass reconciliation when sum matches exactly", func(t *testing.T) {
		result, err := ValidateNutrition(testMeal(), omadTargets())

		require.NoError(t, err)
		for _, f := range result.CriticalFailures {
			assert.NotEqual(t, "ingredient reconciliation", f.Check)
		}
	})

	t.Run("should be independent of ingredient order", func(t *testing.T) {
		meal := testMeal()
		base, err := ValidateNutrition(meal, omadTargets())
		require.NoError(t, err)

		r := rand.New(rand.NewSource(42))
		for i := 0; i < 10; i++ {
			shuffled := testMeal()
			r.Shuffle(len(shuffled.Ingredients), func(a, b int) {
				shuffled.Ingredients[a], shuffled.Ingredients[b] = shuffled.Ingredients[b], shuffled.Ingredients[a]
			})
			r.Shuffle(len(shuffled.Instructions), func(a, b int) {
				shuffled.Instructions[a], shuffled.Instructions[b] = shuffled.Instructions[b], shuffled.Instructions[a]
			})

			result, err := ValidateNutrition(shuffled, omadTargets())
			require.NoError(t, err)
			assert.Equal(t, base.Passed, result.Passed)
		}
	})
}

func TestValidateNutritionInput(t *testing.T) {
	t.Run("should reject empty ingredients", func(t *testing.T) {
		meal := testMeal()
		meal.Ingredients = nil

		result, err := ValidateNutrition(meal, omadTargets())

		assert.Nil(t, result)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "ingredients", invalid.Field)
	})

	t.Run("should reject negative ingredient values", func(t *testing.T) {
		meal := testMeal()
		meal.Ingredients[1].Calories = -10

		_, err := ValidateNutrition(meal, omadTargets())

		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("should reject negative quantity", func(t *testing.T) {
		meal := testMeal()
		meal.Ingredients[0].Quantity = -1

		_, err := ValidateNutrition(meal, omadTargets())

		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("should reject malformed targets", func(t *testing.T) {
		targets := omadTargets()
		targets.CalorieTolerancePct = 1.5

		_, err := ValidateNutrition(testMeal(), targets)

		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "calorie_tolerance_pct", invalid.Field)
	})
}
