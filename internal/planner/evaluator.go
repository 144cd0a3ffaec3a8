package planner

import (
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// Evaluator runs the applicable validators for a candidate: nutrition and
// format for a single meal, both per day plus variety for a plan. It holds
// the authoritative configuration for a cycle so every attempt is judged
// against the same policy.
type Evaluator struct {
	targets validation.NutritionTargets
	rules   validation.MethodRules
	variety validation.VarietyConfig
}

// NewEvaluator creates an evaluator bound to one policy set.
func NewEvaluator(targets validation.NutritionTargets, rules validation.MethodRules, variety validation.VarietyConfig) *Evaluator {
	return &Evaluator{targets: targets, rules: rules, variety: variety}
}

// EvaluateMeal validates a single candidate meal.
func (e *Evaluator) EvaluateMeal(meal *validation.Meal) (*MealEvaluation, error) {
	nutrition, err := validation.ValidateNutrition(meal, e.targets)
	if err != nil {
		return nil, err
	}
	format, err := validation.ValidateFormat(meal, e.rules)
	if err != nil {
		return nil, err
	}
	return &MealEvaluation{Nutrition: nutrition, Format: format}, nil
}

// EvaluatePlan validates every day of a candidate plan and runs the
// variety analysis on the whole week. After a single-day repair the caller
// re-runs this on the reassembled plan, so a replacement that introduces a
// new cross-day conflict is caught.
func (e *Evaluator) EvaluatePlan(plan *validation.Plan) (*PlanEvaluation, error) {
	if plan == nil {
		return nil, &validation.InvalidInputError{Field: "plan", Reason: "missing"}
	}
	if len(plan.Days) != validation.PlanDays {
		return nil, &validation.InvalidInputError{Field: "days", Reason: "plan must have 7 days"}
	}

	eval := &PlanEvaluation{DayResults: make([]*validation.ValidationResult, len(plan.Days))}
	for i := range plan.Days {
		mealEval, err := e.EvaluateMeal(&plan.Days[i])
		if err != nil {
			return nil, err
		}
		eval.DayResults[i] = mealEval.Combined()
	}

	variety, err := validation.AnalyzeVariety(plan, e.variety)
	if err != nil {
		return nil, err
	}
	eval.Variety = variety
	eval.VarietyFailures = e.variety.Failures(variety)

	return eval, nil
}
