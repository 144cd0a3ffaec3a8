package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/omadchef/omadchef-v2/backend/internal/model"
	"github.com/omadchef/omadchef-v2/backend/internal/models"
	"github.com/omadchef/omadchef-v2/backend/internal/planner"
	"github.com/omadchef/omadchef-v2/backend/internal/types"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// GenerationRequest is the normalized input handed to the generator.
// Feedback carries the previous attempt's critical failures so retries
// steer away from the same mistakes.
type GenerationRequest struct {
	CookingMethod       validation.CookingMethod
	DietaryRestrictions []string
	PreferredProteins   []string
	CalorieTarget       int
	Notes               string
	Feedback            []string
}

// Normalized strips the volatile fields for fingerprinting.
func (r GenerationRequest) Normalized() planner.NormalizedRequest {
	return planner.NormalizedRequest{
		CookingMethod:       r.CookingMethod,
		DietaryRestrictions: r.DietaryRestrictions,
		PreferredProteins:   r.PreferredProteins,
		CalorieTarget:       r.CalorieTarget,
	}
}

// GeneratorServiceInterface produces candidate meals and plans from the
// external completion API.
type GeneratorServiceInterface interface {
	GenerateMeal(ctx context.Context, req GenerationRequest) (*validation.Meal, error)
	GeneratePlan(ctx context.Context, req GenerationRequest) (*validation.Plan, error)
	RegenerateDay(ctx context.Context, req GenerationRequest, plan *validation.Plan, day int) (*validation.Meal, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	DietaryRestrictions(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ICacheService caches validated meals and plans by request fingerprint.
type ICacheService interface {
	GetValidatedMeal(ctx context.Context, fingerprint string) (*validation.Meal, error)
	SetValidatedMeal(ctx context.Context, fingerprint string, meal *validation.Meal) error
	GetValidatedPlan(ctx context.Context, fingerprint string) (*validation.Plan, error)
	SetValidatedPlan(ctx context.Context, fingerprint string, plan *validation.Plan) error
}

// IMealService defines the interface for persistence of accepted candidates.
type IMealService interface {
	SaveAcceptedMeal(ctx context.Context, meal validation.Meal, userID uuid.UUID) (*model.Meal, error)
	SaveAcceptedPlan(ctx context.Context, plan validation.Plan, userID uuid.UUID, fingerprint string, varietyScore float64) (*model.MealPlan, error)
	GetMeal(ctx context.Context, id uuid.UUID) (*model.Meal, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*model.MealPlan, error)
	ListPlans(ctx context.Context, userID uuid.UUID) ([]*model.MealPlan, error)
	FindPlanByFingerprint(ctx context.Context, fingerprint string) (*model.MealPlan, error)
	SetPlanArchiveKey(ctx context.Context, id uuid.UUID, key string) error
	SearchMeals(ctx context.Context, query string) ([]*model.Meal, error)
}

// IArchiveService writes accepted plans to long-term object storage.
type IArchiveService interface {
	ArchivePlan(ctx context.Context, plan *model.MealPlan) (string, error)
	PlanURL(ctx context.Context, archiveKey string) (string, error)
}
