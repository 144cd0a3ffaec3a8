package types

import (
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// GenerateMealRequest asks for a single validated meal. Free-text notes
// are passed to the generator but never participate in cache keying.
type GenerateMealRequest struct {
	CookingMethod       string   `json:"cooking_method" binding:"required"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	PreferredProteins   []string `json:"preferred_proteins"`
	CalorieTarget       int      `json:"calorie_target"`
	Notes               string   `json:"notes"`
}

// GeneratePlanRequest asks for a validated 7-day plan.
type GeneratePlanRequest struct {
	CookingMethod       string   `json:"cooking_method" binding:"required"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	PreferredProteins   []string `json:"preferred_proteins"`
	CalorieTarget       int      `json:"calorie_target"`
	Notes               string   `json:"notes"`
}

// EvaluateMealRequest submits an externally produced candidate meal for
// validation only, with no generation or persistence.
type EvaluateMealRequest struct {
	Meal validation.Meal `json:"meal" binding:"required"`
}

// RegisterRequest creates an account, optionally linked to the Telegram
// chat the bot front-end serves.
type RegisterRequest struct {
	Name                string   `json:"name" binding:"required"`
	Email               string   `json:"email" binding:"required,email"`
	Password            string   `json:"password" binding:"required,min=6"`
	TelegramChatID      int64    `json:"telegram_chat_id"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
