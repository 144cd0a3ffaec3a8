// Package planner holds the regeneration decision logic: given validation
// results for a candidate meal or plan, it decides whether to accept the
// candidate, request a bounded retry at some granularity, or fail with the
// accumulated history. It performs no I/O of its own.
package planner

import (
	"fmt"

	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// State of a regeneration cycle.
type State string

const (
	StatePending    State = "pending"
	StateValidating State = "validating"
	StateAccepted   State = "accepted"
	StateRetrying   State = "retrying"
	StateFailed     State = "failed"
)

// Action is the controller's verdict for one attempt.
type Action string

const (
	ActionAccept Action = "accept"
	ActionRetry  Action = "retry"
	ActionFail   Action = "fail"
)

// Target is the granularity at which a retry is requested.
type Target string

const (
	TargetWholeMeal Target = "whole_meal"
	TargetSingleDay Target = "single_day"
	TargetWholePlan Target = "whole_plan"
)

// Budgets caps how many generation attempts each target type gets. A full
// 7-day regeneration is markedly more expensive than a single-day patch,
// so day repairs get a smaller budget of their own.
type Budgets struct {
	WholeMeal int `json:"whole_meal"`
	WholePlan int `json:"whole_plan"`
	SingleDay int `json:"single_day"`
}

// DefaultBudgets returns the standard attempt budgets.
func DefaultBudgets() Budgets {
	return Budgets{WholeMeal: 3, WholePlan: 3, SingleDay: 2}
}

// For returns the budget for a target type.
func (b Budgets) For(target Target) int {
	switch target {
	case TargetSingleDay:
		return b.SingleDay
	case TargetWholePlan:
		return b.WholePlan
	default:
		return b.WholeMeal
	}
}

// MealEvaluation is the combined validator output for a single meal.
type MealEvaluation struct {
	Nutrition *validation.ValidationResult
	Format    *validation.ValidationResult
}

// Combined merges the nutrition and format results into one.
func (e *MealEvaluation) Combined() *validation.ValidationResult {
	combined := &validation.ValidationResult{Passed: true}
	combined.Merge(e.Nutrition)
	combined.Merge(e.Format)
	return combined
}

// PlanEvaluation is the combined validator output for a 7-day plan: one
// merged result per day plus the cross-day variety analysis.
type PlanEvaluation struct {
	DayResults      []*validation.ValidationResult
	Variety         *validation.VarietyResult
	VarietyFailures []validation.CheckFailure
}

// FailingDays returns the indices of days with critical failures.
func (e *PlanEvaluation) FailingDays() []int {
	var days []int
	for i, res := range e.DayResults {
		if res != nil && len(res.CriticalFailures) > 0 {
			days = append(days, i)
		}
	}
	return days
}

// Results flattens the per-day results plus a synthetic variety result
// into a single slice for history recording.
func (e *PlanEvaluation) Results() []*validation.ValidationResult {
	results := make([]*validation.ValidationResult, 0, len(e.DayResults)+1)
	results = append(results, e.DayResults...)
	results = append(results, &validation.ValidationResult{
		Passed:           len(e.VarietyFailures) == 0,
		CriticalFailures: e.VarietyFailures,
	})
	return results
}

// AttemptRecord is one completed generate-and-validate cycle.
type AttemptRecord struct {
	Number  int                            `json:"number"`
	Target  Target                         `json:"target"`
	Results []*validation.ValidationResult `json:"results"`
}

// AttemptState tracks per-target attempt counts and the full validation
// history across a regeneration cycle. The history always contains every
// recorded result, not just the latest attempt's.
type AttemptState struct {
	counts  map[Target]int
	history []AttemptRecord
}

// NewAttemptState returns an empty attempt tracker.
func NewAttemptState() *AttemptState {
	return &AttemptState{counts: make(map[Target]int)}
}

// Record registers a completed attempt against the given target.
func (s *AttemptState) Record(target Target, results []*validation.ValidationResult) {
	s.counts[target]++
	s.history = append(s.history, AttemptRecord{
		Number:  s.counts[target],
		Target:  target,
		Results: results,
	})
}

// Attempts returns how many attempts have been recorded for a target.
func (s *AttemptState) Attempts(target Target) int {
	return s.counts[target]
}

// History returns all recorded attempts in order.
func (s *AttemptState) History() []AttemptRecord {
	return s.history
}

// Decision is the controller's output for one attempt. On retry, Target
// names the granularity to regenerate and FailingDay is set when a single
// day should be replaced. History is always the full record.
type Decision struct {
	Action     Action          `json:"action"`
	State      State           `json:"state"`
	Target     Target          `json:"target,omitempty"`
	FailingDay int             `json:"failing_day,omitempty"`
	History    []AttemptRecord `json:"history"`
}

// Controller applies the attempt budgets to validation outcomes.
type Controller struct {
	budgets Budgets
}

// NewController creates a controller with the given budgets.
func NewController(budgets Budgets) *Controller {
	return &Controller{budgets: budgets}
}

// DecideMeal resolves one single-meal attempt. The caller must have
// recorded the attempt's results on state before calling.
func (c *Controller) DecideMeal(eval *MealEvaluation, state *AttemptState) Decision {
	combined := eval.Combined()
	if len(combined.CriticalFailures) == 0 {
		return Decision{Action: ActionAccept, State: StateAccepted, History: state.History()}
	}
	if state.Attempts(TargetWholeMeal) < c.budgets.For(TargetWholeMeal) {
		return Decision{Action: ActionRetry, State: StateRetrying, Target: TargetWholeMeal, History: state.History()}
	}
	return Decision{Action: ActionFail, State: StateFailed, History: state.History()}
}

// DecidePlan resolves one whole-plan attempt. Target selection: when
// exactly one day carries critical failures and variety holds, a cheaper
// single-day repair is requested; when variety fails but every day passes,
// only a whole-plan regeneration can fix the cross-day conflict.
func (c *Controller) DecidePlan(eval *PlanEvaluation, state *AttemptState) Decision {
	failingDays := eval.FailingDays()
	varietyBlocked := len(eval.VarietyFailures) > 0

	if len(failingDays) == 0 && !varietyBlocked {
		return Decision{Action: ActionAccept, State: StateAccepted, History: state.History()}
	}

	target := TargetWholePlan
	failingDay := 0
	if len(failingDays) == 1 && !varietyBlocked {
		target = TargetSingleDay
		failingDay = failingDays[0]
	}

	if state.Attempts(target) < c.budgets.For(target) {
		return Decision{
			Action:     ActionRetry,
			State:      StateRetrying,
			Target:     target,
			FailingDay: failingDay,
			History:    state.History(),
		}
	}
	return Decision{Action: ActionFail, State: StateFailed, History: state.History()}
}

// Feedback summarizes an attempt's critical failures as generator context
// for the next retry.
func Feedback(results []*validation.ValidationResult) []string {
	var notes []string
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, f := range res.CriticalFailures {
			notes = append(notes, fmt.Sprintf("%s: expected %s, got %s", f.Check, f.Expected, f.Actual))
		}
	}
	return notes
}
