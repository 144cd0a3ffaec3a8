package config

import (
	"os"
	"strconv"

	"github.com/omadchef/omadchef-v2/backend/internal/planner"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// PolicyConfig is the single authoritative source for every validation
// threshold: nutrition targets, per-method format rules, variety scoring
// and the regeneration attempt budgets. Validators receive these values
// explicitly at the call site; nothing reads them ambiently.
type PolicyConfig struct {
	Targets validation.NutritionTargets
	Variety validation.VarietyConfig
	Budgets planner.Budgets
	Methods []validation.MethodRules
}

// DefaultPolicy returns the standard OMAD policy: one large daily meal
// carrying the full day's macro targets, prepared in a pressure cooker.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		Targets: validation.NutritionTargets{
			CalorieTarget:       2300,
			CalorieTolerancePct: 0.05,
			ProteinMinG:         130,
			ProteinMaxG:         160,
			CarbsMinG:           230,
			CarbsMaxG:           280,
			FatMinG:             70,
			FatMaxG:             90,
			FiberMinG:           30,
		},
		Variety: validation.DefaultVarietyConfig(),
		Budgets: planner.DefaultBudgets(),
		Methods: []validation.MethodRules{
			{
				Method: validation.MethodPressureCooker,
				RequiredPatterns: []validation.PatternRule{
					{
						Name:    "seal",
						Pattern: "seal the lid",
						Kind:    validation.PatternPhrase,
						Why:     "unsealed vessel cannot build pressure",
					},
					{
						Name:    "duration",
						Pattern: `high pressure for \d+ minutes`,
						Kind:    validation.PatternRegex,
						After:   "seal",
						Why:     "timed cook must happen on a sealed vessel",
					},
				},
				MinLiquidVolumeML: 250,
				VesselCapacityML:  6000,
				MaxFillRatio:      0.66,
			},
		},
	}
}

// LoadPolicy returns the default policy with environment-variable
// overrides applied for the commonly tuned values.
func LoadPolicy() PolicyConfig {
	policy := DefaultPolicy()

	if v, ok := envFloat("CALORIE_TARGET"); ok {
		policy.Targets.CalorieTarget = v
	}
	if v, ok := envFloat("CALORIE_TOLERANCE_PCT"); ok {
		policy.Targets.CalorieTolerancePct = v
	}
	if v, ok := envFloat("MIN_VARIETY_SCORE"); ok {
		policy.Variety.MinVarietyScore = v
	}
	if v, ok := envInt("MIN_UNIQUE_PROTEINS"); ok {
		policy.Variety.MinUniqueProteins = v
	}
	if v, ok := envInt("MIN_UNIQUE_CUISINES"); ok {
		policy.Variety.MinUniqueCuisines = v
	}
	if v, ok := envInt("MAX_MEAL_ATTEMPTS"); ok {
		policy.Budgets.WholeMeal = v
	}
	if v, ok := envInt("MAX_PLAN_ATTEMPTS"); ok {
		policy.Budgets.WholePlan = v
	}
	if v, ok := envInt("MAX_DAY_ATTEMPTS"); ok {
		policy.Budgets.SingleDay = v
	}

	return policy
}

// RulesFor returns the configured rules for a cooking method. Methods
// without authored rules get an empty rule set, which passes everything.
func (p PolicyConfig) RulesFor(method validation.CookingMethod) validation.MethodRules {
	for _, rules := range p.Methods {
		if rules.Method == method {
			return rules
		}
	}
	return validation.MethodRules{Method: method}
}

func envFloat(name string) (float64, bool) {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func envInt(name string) (int, bool) {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v, true
		}
	}
	return 0, false
}
