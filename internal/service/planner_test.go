package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadchef/omadchef-v2/backend/config"
	"github.com/omadchef/omadchef-v2/backend/internal/model"
	"github.com/omadchef/omadchef-v2/backend/internal/planner"
	"github.com/omadchef/omadchef-v2/backend/internal/service"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// goodMeal returns a meal that clears every nutrition and format check
// under the default policy.
func goodMeal(name, protein, cuisine string) *validation.Meal {
	return &validation.Meal{
		Name:           name,
		CookingMethod:  validation.MethodPressureCooker,
		CuisineType:    cuisine,
		PrimaryProtein: protein,
		Ingredients: []validation.Ingredient{
			{Name: protein, Quantity: 500, Unit: validation.UnitGram, Calories: 2300, ProteinG: 145, CarbsG: 250, FatG: 80, FiberG: 32},
			{Name: "water", Quantity: 500, Unit: validation.UnitMilliliter},
		},
		Instructions: []validation.Instruction{
			{Step: 1, Text: "Add everything to the pot and seal the lid."},
			{Step: 2, Text: "Cook on high pressure for 12 minutes."},
		},
		Nutrition: validation.NutritionSummary{Calories: 2300, ProteinG: 145, CarbsG: 250, FatG: 80, FiberG: 32},
	}
}

// lowProteinMeal fails only the protein band.
func lowProteinMeal(name string) *validation.Meal {
	meal := goodMeal(name, "tofu", "Thai")
	meal.Ingredients[0].ProteinG = 100
	meal.Nutrition.ProteinG = 100
	return meal
}

func goodPlan() *validation.Plan {
	proteins := []string{"chicken", "beef", "salmon", "lentils", "pork", "shrimp", "turkey"}
	cuisines := []string{"Thai", "Mexican", "Italian", "Indian", "Korean", "Moroccan", "French"}
	plan := &validation.Plan{Days: make([]validation.Meal, validation.PlanDays)}
	for i := 0; i < validation.PlanDays; i++ {
		plan.Days[i] = *goodMeal(fmt.Sprintf("meal %d", i), proteins[i], cuisines[i])
	}
	return plan
}

type scriptedGenerator struct {
	meals       []*validation.Meal
	plans       []*validation.Plan
	repairs     []*validation.Meal
	mealCalls   int
	planCalls   int
	repairCalls int
	lastReq     service.GenerationRequest
}

func (g *scriptedGenerator) GenerateMeal(ctx context.Context, req service.GenerationRequest) (*validation.Meal, error) {
	g.lastReq = req
	if g.mealCalls >= len(g.meals) {
		return nil, fmt.Errorf("unexpected meal generation call %d", g.mealCalls)
	}
	meal := g.meals[g.mealCalls]
	g.mealCalls++
	return meal, nil
}

func (g *scriptedGenerator) GeneratePlan(ctx context.Context, req service.GenerationRequest) (*validation.Plan, error) {
	g.lastReq = req
	if g.planCalls >= len(g.plans) {
		return nil, fmt.Errorf("unexpected plan generation call %d", g.planCalls)
	}
	plan := g.plans[g.planCalls]
	g.planCalls++
	return plan, nil
}

func (g *scriptedGenerator) RegenerateDay(ctx context.Context, req service.GenerationRequest, plan *validation.Plan, day int) (*validation.Meal, error) {
	g.lastReq = req
	if g.repairCalls >= len(g.repairs) {
		return nil, fmt.Errorf("unexpected day regeneration call %d", g.repairCalls)
	}
	meal := g.repairs[g.repairCalls]
	g.repairCalls++
	return meal, nil
}

type memoryCache struct {
	meals map[string]*validation.Meal
	plans map[string]*validation.Plan
}

func newMemoryCache() *memoryCache {
	return &memoryCache{meals: map[string]*validation.Meal{}, plans: map[string]*validation.Plan{}}
}

func (c *memoryCache) GetValidatedMeal(ctx context.Context, fp string) (*validation.Meal, error) {
	return c.meals[fp], nil
}

func (c *memoryCache) SetValidatedMeal(ctx context.Context, fp string, meal *validation.Meal) error {
	c.meals[fp] = meal
	return nil
}

func (c *memoryCache) GetValidatedPlan(ctx context.Context, fp string) (*validation.Plan, error) {
	return c.plans[fp], nil
}

func (c *memoryCache) SetValidatedPlan(ctx context.Context, fp string, plan *validation.Plan) error {
	c.plans[fp] = plan
	return nil
}

type memoryStore struct {
	savedMeals []model.Meal
	savedPlans []model.MealPlan
}

func (s *memoryStore) SaveAcceptedMeal(ctx context.Context, meal validation.Meal, userID uuid.UUID) (*model.Meal, error) {
	row := model.FromValidation(meal, userID)
	row.ID = uuid.New()
	s.savedMeals = append(s.savedMeals, row)
	return &row, nil
}

func (s *memoryStore) SaveAcceptedPlan(ctx context.Context, plan validation.Plan, userID uuid.UUID, fingerprint string, varietyScore float64) (*model.MealPlan, error) {
	row := model.MealPlan{UserID: userID, Fingerprint: fingerprint, VarietyScore: varietyScore}
	row.ID = uuid.New()
	s.savedPlans = append(s.savedPlans, row)
	return &row, nil
}

func (s *memoryStore) GetMeal(ctx context.Context, id uuid.UUID) (*model.Meal, error) {
	return nil, fmt.Errorf("not found")
}

func (s *memoryStore) GetPlan(ctx context.Context, id uuid.UUID) (*model.MealPlan, error) {
	return nil, fmt.Errorf("not found")
}

func (s *memoryStore) ListPlans(ctx context.Context, userID uuid.UUID) ([]*model.MealPlan, error) {
	return nil, nil
}

func (s *memoryStore) FindPlanByFingerprint(ctx context.Context, fp string) (*model.MealPlan, error) {
	for i := range s.savedPlans {
		if s.savedPlans[i].Fingerprint == fp {
			return &s.savedPlans[i], nil
		}
	}
	return nil, nil
}

func (s *memoryStore) SetPlanArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	for i := range s.savedPlans {
		if s.savedPlans[i].ID == id {
			s.savedPlans[i].ArchiveKey = key
		}
	}
	return nil
}

func (s *memoryStore) SearchMeals(ctx context.Context, query string) ([]*model.Meal, error) {
	return nil, nil
}

func newPlanner(gen *scriptedGenerator) (*service.PlannerService, *memoryCache, *memoryStore) {
	cache := newMemoryCache()
	store := &memoryStore{}
	svc := service.NewPlannerService(gen, cache, store, nil, config.DefaultPolicy())
	return svc, cache, store
}

func mealRequest() service.GenerationRequest {
	return service.GenerationRequest{
		CookingMethod: validation.MethodPressureCooker,
		CalorieTarget: 2300,
	}
}

func TestGenerateValidatedMeal(t *testing.T) {
	userID := uuid.New()

	t.Run("accepts on final attempt and keeps full history", func(t *testing.T) {
		gen := &scriptedGenerator{meals: []*validation.Meal{
			lowProteinMeal("attempt one"),
			lowProteinMeal("attempt two"),
			goodMeal("attempt three", "chicken", "Thai"),
		}}
		svc, cache, store := newPlanner(gen)

		outcome, err := svc.GenerateValidatedMeal(context.Background(), userID, mealRequest())
		require.NoError(t, err)

		assert.Equal(t, 3, gen.mealCalls)
		assert.Len(t, outcome.History, 3)
		assert.Equal(t, "attempt three", outcome.Meal.Name)
		require.NotNil(t, outcome.Saved)
		assert.Len(t, store.savedMeals, 1)
		assert.Len(t, cache.meals, 1)
	})

	t.Run("passes failure feedback to the retry", func(t *testing.T) {
		gen := &scriptedGenerator{meals: []*validation.Meal{
			lowProteinMeal("first"),
			goodMeal("second", "beef", "Mexican"),
		}}
		svc, _, _ := newPlanner(gen)

		_, err := svc.GenerateValidatedMeal(context.Background(), userID, mealRequest())
		require.NoError(t, err)
		require.NotEmpty(t, gen.lastReq.Feedback)
		assert.Contains(t, gen.lastReq.Feedback[0], "protein band")
	})

	t.Run("fails after exhausting the budget", func(t *testing.T) {
		gen := &scriptedGenerator{meals: []*validation.Meal{
			lowProteinMeal("one"),
			lowProteinMeal("two"),
			lowProteinMeal("three"),
		}}
		svc, cache, store := newPlanner(gen)

		_, err := svc.GenerateValidatedMeal(context.Background(), userID, mealRequest())
		var exhausted *service.BudgetExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Len(t, exhausted.History, 3)
		assert.Equal(t, 3, gen.mealCalls)
		assert.Empty(t, store.savedMeals)
		assert.Empty(t, cache.meals)
	})

	t.Run("cache hit skips generation entirely", func(t *testing.T) {
		gen := &scriptedGenerator{}
		svc, cache, store := newPlanner(gen)

		req := mealRequest()
		fp := planner.Fingerprint(req.Normalized())
		cache.meals[fp] = goodMeal("cached", "chicken", "Thai")

		outcome, err := svc.GenerateValidatedMeal(context.Background(), userID, req)
		require.NoError(t, err)
		assert.True(t, outcome.Cached)
		assert.Equal(t, "cached", outcome.Meal.Name)
		assert.Nil(t, outcome.Saved)
		assert.Equal(t, 0, gen.mealCalls)
		assert.Empty(t, store.savedMeals)
	})

	t.Run("malformed candidate is not retried", func(t *testing.T) {
		broken := goodMeal("broken", "chicken", "Thai")
		broken.Ingredients = nil
		gen := &scriptedGenerator{meals: []*validation.Meal{broken}}
		svc, _, store := newPlanner(gen)

		_, err := svc.GenerateValidatedMeal(context.Background(), userID, mealRequest())
		require.Error(t, err)
		assert.True(t, service.IsInvalidInput(err))
		assert.Equal(t, 1, gen.mealCalls)
		assert.Empty(t, store.savedMeals)
	})

	t.Run("cancelled context aborts with no side effects", func(t *testing.T) {
		gen := &scriptedGenerator{meals: []*validation.Meal{goodMeal("never", "chicken", "Thai")}}
		svc, cache, store := newPlanner(gen)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.GenerateValidatedMeal(ctx, userID, mealRequest())
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, store.savedMeals)
		assert.Empty(t, cache.meals)
	})
}

func TestGenerateValidatedPlan(t *testing.T) {
	userID := uuid.New()

	t.Run("accepts a clean plan first try", func(t *testing.T) {
		gen := &scriptedGenerator{plans: []*validation.Plan{goodPlan()}}
		svc, cache, store := newPlanner(gen)

		outcome, err := svc.GenerateValidatedPlan(context.Background(), userID, mealRequest())
		require.NoError(t, err)
		assert.Equal(t, 1, gen.planCalls)
		assert.Len(t, outcome.History, 1)
		assert.Greater(t, outcome.VarietyScore, 6.0)
		assert.Len(t, store.savedPlans, 1)
		assert.Len(t, cache.plans, 1)
	})

	t.Run("repairs a single failing day instead of regenerating the week", func(t *testing.T) {
		plan := goodPlan()
		plan.Days[3] = *lowProteinMeal("weak day")
		plan.Days[3].PrimaryProtein = "lentils"
		plan.Days[3].CuisineType = "Indian"

		repair := goodMeal("fixed day", "lentils", "Indian")
		gen := &scriptedGenerator{plans: []*validation.Plan{plan}, repairs: []*validation.Meal{repair}}
		svc, _, store := newPlanner(gen)

		outcome, err := svc.GenerateValidatedPlan(context.Background(), userID, mealRequest())
		require.NoError(t, err)

		assert.Equal(t, 1, gen.planCalls)
		assert.Equal(t, 1, gen.repairCalls)
		require.Len(t, outcome.History, 2)
		assert.Equal(t, planner.TargetWholePlan, outcome.History[0].Target)
		assert.Equal(t, planner.TargetSingleDay, outcome.History[1].Target)
		assert.Equal(t, "fixed day", outcome.Plan.Days[3].Name)
		assert.Len(t, store.savedPlans, 1)
	})

	t.Run("variety conflict forces whole-plan regeneration", func(t *testing.T) {
		repetitive := goodPlan()
		// Every day passes individually but shares one protein.
		for i := range repetitive.Days {
			repetitive.Days[i].PrimaryProtein = "chicken"
		}
		gen := &scriptedGenerator{plans: []*validation.Plan{repetitive, goodPlan()}}
		svc, _, _ := newPlanner(gen)

		outcome, err := svc.GenerateValidatedPlan(context.Background(), userID, mealRequest())
		require.NoError(t, err)
		assert.Equal(t, 2, gen.planCalls)
		assert.Equal(t, 0, gen.repairCalls)
		assert.Len(t, outcome.History, 2)
	})

	t.Run("exhausted plan budget returns the full history", func(t *testing.T) {
		bad := func() *validation.Plan {
			p := goodPlan()
			for i := range p.Days {
				p.Days[i].PrimaryProtein = "chicken"
			}
			return p
		}
		gen := &scriptedGenerator{plans: []*validation.Plan{bad(), bad(), bad()}}
		svc, cache, store := newPlanner(gen)

		_, err := svc.GenerateValidatedPlan(context.Background(), userID, mealRequest())
		var exhausted *service.BudgetExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, planner.TargetWholePlan, exhausted.Target)
		assert.Len(t, exhausted.History, 3)
		assert.Empty(t, store.savedPlans)
		assert.Empty(t, cache.plans)
	})

	t.Run("plan cache hit returns the stored row", func(t *testing.T) {
		gen := &scriptedGenerator{}
		svc, cache, store := newPlanner(gen)

		req := mealRequest()
		fp := planner.Fingerprint(req.Normalized())
		cache.plans[fp] = goodPlan()
		store.savedPlans = append(store.savedPlans, model.MealPlan{ID: uuid.New(), Fingerprint: fp, VarietyScore: 8.5})

		outcome, err := svc.GenerateValidatedPlan(context.Background(), userID, req)
		require.NoError(t, err)
		assert.True(t, outcome.Cached)
		require.NotNil(t, outcome.Saved)
		assert.Equal(t, 8.5, outcome.VarietyScore)
		assert.Equal(t, 0, gen.planCalls)
	})
}

func TestEvaluateCandidate(t *testing.T) {
	svc, _, _ := newPlanner(&scriptedGenerator{})

	t.Run("passing meal", func(t *testing.T) {
		eval, err := svc.EvaluateCandidate(goodMeal("ok", "chicken", "Thai"))
		require.NoError(t, err)
		assert.True(t, eval.Combined().Passed)
	})

	t.Run("failing meal reports checks", func(t *testing.T) {
		eval, err := svc.EvaluateCandidate(lowProteinMeal("weak"))
		require.NoError(t, err)
		combined := eval.Combined()
		assert.False(t, combined.Passed)
		require.NotEmpty(t, combined.CriticalFailures)
		assert.Equal(t, "protein band", combined.CriticalFailures[0].Check)
	})

	t.Run("nil meal", func(t *testing.T) {
		_, err := svc.EvaluateCandidate(nil)
		assert.True(t, service.IsInvalidInput(err))
	})
}
