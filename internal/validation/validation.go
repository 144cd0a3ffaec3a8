package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// CookingMethod identifies which preparation style a meal was generated for.
// Format rules are authored per method and only apply to matching meals.
type CookingMethod string

const (
	MethodPressureCooker CookingMethod = "pressure_cooker"
	MethodSlowCooker     CookingMethod = "slow_cooker"
)

// Unit is a measurement unit for an ingredient quantity.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "piece"
	UnitTablespoon Unit = "tbsp"
	UnitTeaspoon   Unit = "tsp"
)

// Milliliters converts a quantity in this unit to milliliters of liquid.
// Returns 0 for units that do not measure liquid volume.
func (u Unit) Milliliters(quantity float64) float64 {
	switch u {
	case UnitMilliliter:
		return quantity
	case UnitLiter:
		return quantity * 1000
	case UnitTablespoon:
		return quantity * 15
	case UnitTeaspoon:
		return quantity * 5
	default:
		return 0
	}
}

// IsLiquid reports whether the unit measures liquid volume.
func (u Unit) IsLiquid() bool {
	switch u {
	case UnitMilliliter, UnitLiter, UnitTablespoon, UnitTeaspoon:
		return true
	}
	return false
}

// Ingredient is a single itemized ingredient with its macro contribution.
// Immutable once the owning meal has been validated.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
}

// Instruction is one numbered preparation step.
type Instruction struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// NutritionSummary holds the generator-reported macro totals for a meal.
type NutritionSummary struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
}

// Meal is a candidate meal produced by the external generator. Validators
// treat it as read-only; retries replace it wholesale.
type Meal struct {
	Name           string           `json:"name"`
	CookingMethod  CookingMethod    `json:"cooking_method"`
	CuisineType    string           `json:"cuisine_type"`
	PrimaryProtein string           `json:"primary_protein"`
	Ingredients    []Ingredient     `json:"ingredients"`
	Instructions   []Instruction    `json:"instructions"`
	Nutrition      NutritionSummary `json:"nutrition_summary"`
}

// PlanDays is the fixed length of a weekly plan, one meal per weekday.
const PlanDays = 7

// Plan is a candidate 7-day plan, positionally indexed by weekday.
type Plan struct {
	Days []Meal `json:"days"`
}

// CheckFailure records a single failed check with what was expected and
// what the candidate actually contained.
type CheckFailure struct {
	Check    string `json:"check_name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// ValidationResult is the outcome of one validation pass. Passed is true
// iff no critical failures were recorded; non-critical failures are kept
// for reporting but never block acceptance.
type ValidationResult struct {
	Passed              bool           `json:"passed"`
	CriticalFailures    []CheckFailure `json:"critical_failures"`
	NonCriticalFailures []CheckFailure `json:"non_critical_failures"`
}

func newResult() *ValidationResult {
	return &ValidationResult{Passed: true}
}

func (r *ValidationResult) addCritical(check, expected, actual string) {
	r.CriticalFailures = append(r.CriticalFailures, CheckFailure{Check: check, Expected: expected, Actual: actual})
	r.Passed = false
}

func (r *ValidationResult) addNonCritical(check, expected, actual string) {
	r.NonCriticalFailures = append(r.NonCriticalFailures, CheckFailure{Check: check, Expected: expected, Actual: actual})
}

// Merge folds another result into r, combining failure lists.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.CriticalFailures = append(r.CriticalFailures, other.CriticalFailures...)
	r.NonCriticalFailures = append(r.NonCriticalFailures, other.NonCriticalFailures...)
	r.Passed = r.Passed && other.Passed
}

// InvalidInputError reports a malformed candidate: missing fields, negative
// quantities, wrong day count. It is never retried; regenerating the same
// malformed input cannot help.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRange(min, max float64) string {
	return formatNumber(min) + "-" + formatNumber(max)
}

// normalizeName lowercases and collapses whitespace for name comparisons.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
