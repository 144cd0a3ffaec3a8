package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/omadchef/omadchef-v2/backend/config"
	"github.com/omadchef/omadchef-v2/backend/internal/model"
	"github.com/omadchef/omadchef-v2/backend/internal/planner"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// BudgetExhaustedError is returned when every allowed generation attempt
// failed validation. History carries the full validation record so the
// caller can show the user what kept failing.
type BudgetExhaustedError struct {
	Target  planner.Target
	History []planner.AttemptRecord
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("generation budget exhausted for %s after %d attempts", e.Target, len(e.History))
}

// MealOutcome is the result of a validated meal request. Saved is nil on
// a cache hit, where nothing new was generated or persisted.
type MealOutcome struct {
	Meal    *validation.Meal        `json:"meal"`
	Saved   *model.Meal             `json:"saved,omitempty"`
	Cached  bool                    `json:"cached"`
	History []planner.AttemptRecord `json:"history,omitempty"`
}

// PlanOutcome is the result of a validated plan request.
type PlanOutcome struct {
	Plan         *validation.Plan        `json:"plan"`
	Saved        *model.MealPlan         `json:"saved,omitempty"`
	Cached       bool                    `json:"cached"`
	VarietyScore float64                 `json:"variety_score"`
	ArchiveKey   string                  `json:"archive_key,omitempty"`
	History      []planner.AttemptRecord `json:"history,omitempty"`
}

// IPlannerService orchestrates generation, validation and persistence.
type IPlannerService interface {
	GenerateValidatedMeal(ctx context.Context, userID uuid.UUID, req GenerationRequest) (*MealOutcome, error)
	GenerateValidatedPlan(ctx context.Context, userID uuid.UUID, req GenerationRequest) (*PlanOutcome, error)
	EvaluateCandidate(meal *validation.Meal) (*planner.MealEvaluation, error)
}

// PlannerService drives the generate-validate-retry cycle. Candidates
// only reach the cache, the database and the archive after passing every
// critical check; a cancelled context aborts the cycle with no side
// effects.
type PlannerService struct {
	generator  GeneratorServiceInterface
	cache      ICacheService
	meals      IMealService
	archive    IArchiveService
	policy     config.PolicyConfig
	controller *planner.Controller
}

// NewPlannerService creates a new PlannerService instance. archive may be
// nil when object storage is not configured.
func NewPlannerService(generator GeneratorServiceInterface, cache ICacheService, meals IMealService, archive IArchiveService, policy config.PolicyConfig) *PlannerService {
	return &PlannerService{
		generator:  generator,
		cache:      cache,
		meals:      meals,
		archive:    archive,
		policy:     policy,
		controller: planner.NewController(policy.Budgets),
	}
}

func (s *PlannerService) evaluator(method validation.CookingMethod) *planner.Evaluator {
	return planner.NewEvaluator(s.policy.Targets, s.policy.RulesFor(method), s.policy.Variety)
}

// EvaluateCandidate validates an externally produced meal without
// generating or persisting anything.
func (s *PlannerService) EvaluateCandidate(meal *validation.Meal) (*planner.MealEvaluation, error) {
	if meal == nil {
		return nil, &validation.InvalidInputError{Field: "meal", Reason: "missing"}
	}
	return s.evaluator(meal.CookingMethod).EvaluateMeal(meal)
}

// GenerateValidatedMeal produces one meal that passes every critical
// check, retrying generation up to the whole-meal budget.
func (s *PlannerService) GenerateValidatedMeal(ctx context.Context, userID uuid.UUID, req GenerationRequest) (*MealOutcome, error) {
	fingerprint := planner.Fingerprint(req.Normalized())

	if cached, err := s.cache.GetValidatedMeal(ctx, fingerprint); err != nil {
		log.Printf("[PlannerService] meal cache lookup failed: %v", err)
	} else if cached != nil {
		return &MealOutcome{Meal: cached, Cached: true}, nil
	}

	eval := s.evaluator(req.CookingMethod)
	state := planner.NewAttemptState()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meal, err := s.generator.GenerateMeal(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}

		mealEval, err := eval.EvaluateMeal(meal)
		if err != nil {
			return nil, err
		}

		results := []*validation.ValidationResult{mealEval.Combined()}
		state.Record(planner.TargetWholeMeal, results)
		decision := s.controller.DecideMeal(mealEval, state)

		switch decision.Action {
		case planner.ActionAccept:
			if err := s.cache.SetValidatedMeal(ctx, fingerprint, meal); err != nil {
				log.Printf("[PlannerService] meal cache write failed: %v", err)
			}
			saved, err := s.meals.SaveAcceptedMeal(ctx, *meal, userID)
			if err != nil {
				return nil, err
			}
			return &MealOutcome{Meal: meal, Saved: saved, History: decision.History}, nil
		case planner.ActionRetry:
			req.Feedback = planner.Feedback(results)
		default:
			return nil, &BudgetExhaustedError{Target: planner.TargetWholeMeal, History: decision.History}
		}
	}
}

// GenerateValidatedPlan produces a 7-day plan that passes every per-day
// check and the variety gate. A single failing day is repaired in place
// when variety holds; the reassembled plan is re-validated as a whole so
// a repair cannot sneak in a new cross-day conflict.
func (s *PlannerService) GenerateValidatedPlan(ctx context.Context, userID uuid.UUID, req GenerationRequest) (*PlanOutcome, error) {
	fingerprint := planner.Fingerprint(req.Normalized())

	if cached, err := s.cache.GetValidatedPlan(ctx, fingerprint); err != nil {
		log.Printf("[PlannerService] plan cache lookup failed: %v", err)
	} else if cached != nil {
		outcome := &PlanOutcome{Plan: cached, Cached: true}
		if saved, err := s.meals.FindPlanByFingerprint(ctx, fingerprint); err == nil && saved != nil {
			outcome.Saved = saved
			outcome.VarietyScore = saved.VarietyScore
			outcome.ArchiveKey = saved.ArchiveKey
		}
		return outcome, nil
	}

	eval := s.evaluator(req.CookingMethod)
	state := planner.NewAttemptState()

	var plan *validation.Plan
	target := planner.TargetWholePlan
	repairDay := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if target == planner.TargetSingleDay {
			replacement, err := s.generator.RegenerateDay(ctx, req, plan, repairDay)
			if err != nil {
				return nil, fmt.Errorf("generation failed: %w", err)
			}
			plan.Days[repairDay] = *replacement
		} else {
			generated, err := s.generator.GeneratePlan(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("generation failed: %w", err)
			}
			plan = generated
		}

		planEval, err := eval.EvaluatePlan(plan)
		if err != nil {
			return nil, err
		}

		state.Record(target, planEval.Results())
		decision := s.controller.DecidePlan(planEval, state)

		switch decision.Action {
		case planner.ActionAccept:
			return s.acceptPlan(ctx, userID, fingerprint, plan, planEval, decision)
		case planner.ActionRetry:
			target = decision.Target
			if target == planner.TargetSingleDay {
				repairDay = decision.FailingDay
				req.Feedback = planner.Feedback([]*validation.ValidationResult{planEval.DayResults[repairDay]})
			} else {
				req.Feedback = planner.Feedback(planEval.Results())
			}
		default:
			return nil, &BudgetExhaustedError{Target: target, History: decision.History}
		}
	}
}

func (s *PlannerService) acceptPlan(ctx context.Context, userID uuid.UUID, fingerprint string, plan *validation.Plan, planEval *planner.PlanEvaluation, decision planner.Decision) (*PlanOutcome, error) {
	if err := s.cache.SetValidatedPlan(ctx, fingerprint, plan); err != nil {
		log.Printf("[PlannerService] plan cache write failed: %v", err)
	}

	saved, err := s.meals.SaveAcceptedPlan(ctx, *plan, userID, fingerprint, planEval.Variety.VarietyScore)
	if err != nil {
		return nil, err
	}

	outcome := &PlanOutcome{
		Plan:         plan,
		Saved:        saved,
		VarietyScore: planEval.Variety.VarietyScore,
		History:      decision.History,
	}

	if s.archive != nil {
		key, err := s.archive.ArchivePlan(ctx, saved)
		if err != nil {
			// Archival is best effort; the accepted plan is already stored.
			log.Printf("[PlannerService] plan archive failed: %v", err)
		} else {
			outcome.ArchiveKey = key
			saved.ArchiveKey = key
			if err := s.meals.SetPlanArchiveKey(ctx, saved.ID, key); err != nil {
				log.Printf("[PlannerService] archive key update failed: %v", err)
			}
		}
	}

	return outcome, nil
}

// IsInvalidInput reports whether err stems from a malformed candidate,
// which retrying can never fix.
func IsInvalidInput(err error) bool {
	var invalid *validation.InvalidInputError
	return errors.As(err, &invalid)
}
