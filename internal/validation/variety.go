package validation

import (
	"fmt"
	"sort"
)

// maxConsecutiveRepeats is the largest possible number of consecutive-day
// repeats across both tracked attributes (6 day pairs × 2 attributes).
const maxConsecutiveRepeats = 12

// Repeat records one consecutive-day repetition: the meal at DayIndex
// shares the attribute value with the previous day.
type Repeat struct {
	DayIndex  int    `json:"day_index"`
	Attribute string `json:"attribute"`
}

// VarietyResult summarizes cross-day diversity of a 7-day plan.
type VarietyResult struct {
	UniqueProteinCount int      `json:"unique_protein_count"`
	UniqueCuisineCount int      `json:"unique_cuisine_count"`
	DuplicateMealNames []string `json:"duplicate_meal_names"`
	ConsecutiveRepeats []Repeat `json:"consecutive_repeats"`
	VarietyScore       float64  `json:"variety_score"`
}

// VarietyConfig carries the score weights and acceptance thresholds. The
// source guides disagree on exact weights and the cuisine minimum, so both
// are configuration rather than constants; only monotonicity and the [0,10]
// bound are fixed properties of the score.
type VarietyConfig struct {
	ProteinWeight   float64 `json:"protein_weight"`
	CuisineWeight   float64 `json:"cuisine_weight"`
	DuplicateWeight float64 `json:"duplicate_weight"`
	RepeatWeight    float64 `json:"repeat_weight"`

	MinUniqueProteins int     `json:"min_unique_proteins"`
	MinUniqueCuisines int     `json:"min_unique_cuisines"`
	MinVarietyScore   float64 `json:"min_variety_score"`
}

// DefaultVarietyConfig returns the standard weighting and thresholds.
func DefaultVarietyConfig() VarietyConfig {
	return VarietyConfig{
		ProteinWeight:     0.3,
		CuisineWeight:     0.3,
		DuplicateWeight:   0.2,
		RepeatWeight:      0.2,
		MinUniqueProteins: 3,
		MinUniqueCuisines: 4,
		MinVarietyScore:   6.0,
	}
}

// AnalyzeVariety computes diversity metrics across the 7 days of a plan.
func AnalyzeVariety(plan *Plan, cfg VarietyConfig) (*VarietyResult, error) {
	if plan == nil {
		return nil, &InvalidInputError{Field: "plan", Reason: "missing"}
	}
	if len(plan.Days) != PlanDays {
		return nil, &InvalidInputError{
			Field:  "days",
			Reason: fmt.Sprintf("expected %d days, got %d", PlanDays, len(plan.Days)),
		}
	}

	proteins := make([]string, PlanDays)
	cuisines := make([]string, PlanDays)
	for i, meal := range plan.Days {
		if meal.PrimaryProtein == "" {
			return nil, &InvalidInputError{Field: fmt.Sprintf("days[%d].primary_protein", i), Reason: "missing"}
		}
		if meal.CuisineType == "" {
			return nil, &InvalidInputError{Field: fmt.Sprintf("days[%d].cuisine_type", i), Reason: "missing"}
		}
		proteins[i] = normalizeName(meal.PrimaryProtein)
		cuisines[i] = normalizeName(meal.CuisineType)
	}

	result := &VarietyResult{
		UniqueProteinCount: countUnique(proteins),
		UniqueCuisineCount: countUnique(cuisines),
	}

	nameCounts := make(map[string]int, PlanDays)
	for _, meal := range plan.Days {
		nameCounts[normalizeName(meal.Name)]++
	}
	for name, count := range nameCounts {
		if count > 1 {
			result.DuplicateMealNames = append(result.DuplicateMealNames, name)
		}
	}
	sort.Strings(result.DuplicateMealNames)

	for i := 1; i < PlanDays; i++ {
		if proteins[i] == proteins[i-1] {
			result.ConsecutiveRepeats = append(result.ConsecutiveRepeats, Repeat{DayIndex: i, Attribute: "protein"})
		}
	}
	for i := 1; i < PlanDays; i++ {
		if cuisines[i] == cuisines[i-1] {
			result.ConsecutiveRepeats = append(result.ConsecutiveRepeats, Repeat{DayIndex: i, Attribute: "cuisine"})
		}
	}

	score := 10 * (cfg.ProteinWeight*(float64(result.UniqueProteinCount)/PlanDays) +
		cfg.CuisineWeight*(float64(result.UniqueCuisineCount)/PlanDays) +
		cfg.DuplicateWeight*(1-float64(len(result.DuplicateMealNames))/PlanDays) +
		cfg.RepeatWeight*(1-float64(len(result.ConsecutiveRepeats))/maxConsecutiveRepeats))
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	result.VarietyScore = score

	return result, nil
}

// Failures evaluates the configured thresholds against an analysis result.
// The consecutive-repeat gate is stricter than the aggregate score and is
// reported even when the score clears the minimum.
func (c VarietyConfig) Failures(res *VarietyResult) []CheckFailure {
	var failures []CheckFailure
	for _, rep := range res.ConsecutiveRepeats {
		failures = append(failures, CheckFailure{
			Check:    "consecutive repeat",
			Expected: fmt.Sprintf("no back-to-back %s repetition", rep.Attribute),
			Actual:   fmt.Sprintf("day %d repeats previous day's %s", rep.DayIndex, rep.Attribute),
		})
	}
	if res.UniqueProteinCount < c.MinUniqueProteins {
		failures = append(failures, CheckFailure{
			Check:    "unique proteins",
			Expected: fmt.Sprintf(">= %d", c.MinUniqueProteins),
			Actual:   fmt.Sprintf("%d", res.UniqueProteinCount),
		})
	}
	if res.UniqueCuisineCount < c.MinUniqueCuisines {
		failures = append(failures, CheckFailure{
			Check:    "unique cuisines",
			Expected: fmt.Sprintf(">= %d", c.MinUniqueCuisines),
			Actual:   fmt.Sprintf("%d", res.UniqueCuisineCount),
		})
	}
	if res.VarietyScore < c.MinVarietyScore {
		failures = append(failures, CheckFailure{
			Check:    "variety score",
			Expected: fmt.Sprintf(">= %s", formatNumber(c.MinVarietyScore)),
			Actual:   formatNumber(res.VarietyScore),
		})
	}
	return failures
}

func countUnique(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
