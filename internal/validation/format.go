package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternKind selects how a required pattern is matched against the
// concatenated instruction text.
type PatternKind string

const (
	PatternPhrase PatternKind = "phrase"
	PatternRegex  PatternKind = "regex"
)

// PatternRule is one required element of a method's instruction format.
// When After names another rule, this pattern's first match must appear
// after that rule's first match (e.g. a timed-cook marker must follow the
// sealed-vessel confirmation).
type PatternRule struct {
	Name    string      `json:"name"`
	Pattern string      `json:"pattern"`
	Kind    PatternKind `json:"kind"`
	After   string      `json:"after,omitempty"`
	Why     string      `json:"why,omitempty"`
}

// MethodRules is the per-cooking-method format configuration. Rules only
// apply to meals whose cooking method matches; other methods pass
// unconditionally.
type MethodRules struct {
	Method            CookingMethod `json:"method"`
	RequiredPatterns  []PatternRule `json:"required_patterns"`
	MinLiquidVolumeML float64       `json:"min_liquid_volume_ml"`
	VesselCapacityML  float64       `json:"vessel_capacity_ml"`
	MaxFillRatio      float64       `json:"max_fill_ratio"`
}

// ValidateFormat checks a meal's instructions against the method's required
// patterns and volume constraints. Instructions are concatenated in step
// order, so pattern position checks are order-sensitive.
func ValidateFormat(meal *Meal, rules MethodRules) (*ValidationResult, error) {
	if err := checkMealInput(meal); err != nil {
		return nil, err
	}
	if len(meal.Instructions) == 0 {
		return nil, &InvalidInputError{Field: "instructions", Reason: "must not be empty"}
	}

	result := newResult()
	if meal.CookingMethod != rules.Method {
		return result, nil
	}

	var sb strings.Builder
	for _, ins := range meal.Instructions {
		sb.WriteString(ins.Text)
		sb.WriteString("\n")
	}
	text := strings.ToLower(sb.String())

	positions := make(map[string]int, len(rules.RequiredPatterns))
	for _, rule := range rules.RequiredPatterns {
		pos, err := matchPosition(text, rule)
		if err != nil {
			return nil, err
		}
		if pos < 0 {
			why := rule.Why
			if why == "" {
				why = "required by cooking method"
			}
			result.addCritical("missing pattern: "+rule.Name,
				fmt.Sprintf("instructions containing %q (%s)", rule.Pattern, why),
				"not found")
			continue
		}
		positions[rule.Name] = pos
	}

	for _, rule := range rules.RequiredPatterns {
		if rule.After == "" {
			continue
		}
		pos, ok := positions[rule.Name]
		prev, okPrev := positions[rule.After]
		if !ok || !okPrev {
			continue // absence already reported above
		}
		if pos < prev {
			result.addCritical("pattern order: "+rule.Name,
				fmt.Sprintf("%q after %q", rule.Name, rule.After),
				fmt.Sprintf("%q found at position %d before %q at position %d", rule.Name, pos, rule.After, prev))
		}
	}

	if rules.MinLiquidVolumeML > 0 {
		liquid := totalLiquidVolume(meal.Ingredients)
		if liquid < rules.MinLiquidVolumeML {
			result.addCritical("minimum liquid volume",
				fmt.Sprintf(">= %s ml", formatNumber(rules.MinLiquidVolumeML)),
				formatNumber(liquid)+" ml")
		}
	}

	if rules.MaxFillRatio > 0 && rules.VesselCapacityML > 0 {
		volume := totalIngredientVolume(meal.Ingredients)
		limit := rules.VesselCapacityML * rules.MaxFillRatio
		if volume > limit {
			result.addCritical("maximum fill ratio",
				fmt.Sprintf("<= %s ml (%.0f%% of %s ml vessel)",
					formatNumber(limit), rules.MaxFillRatio*100, formatNumber(rules.VesselCapacityML)),
				formatNumber(volume)+" ml")
		}
	}

	return result, nil
}

func matchPosition(text string, rule PatternRule) (int, error) {
	switch rule.Kind {
	case PatternRegex:
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return 0, &InvalidInputError{Field: "required_patterns." + rule.Name, Reason: "invalid regex: " + err.Error()}
		}
		loc := re.FindStringIndex(text)
		if loc == nil {
			return -1, nil
		}
		return loc[0], nil
	case PatternPhrase, "":
		return strings.Index(text, strings.ToLower(rule.Pattern)), nil
	default:
		return 0, &InvalidInputError{Field: "required_patterns." + rule.Name, Reason: "unknown pattern kind"}
	}
}

func totalLiquidVolume(ingredients []Ingredient) float64 {
	var total float64
	for _, ing := range ingredients {
		total += ing.Unit.Milliliters(ing.Quantity)
	}
	return total
}

// totalIngredientVolume approximates occupied vessel volume. Solids
// measured in grams count 1:1 as milliliters; pieces have no known volume
// and are excluded.
func totalIngredientVolume(ingredients []Ingredient) float64 {
	var total float64
	for _, ing := range ingredients {
		if ing.Unit == UnitGram {
			total += ing.Quantity
			continue
		}
		total += ing.Unit.Milliliters(ing.Quantity)
	}
	return total
}
