package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omadchef/omadchef-v2/backend/internal/model"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// MealService persists accepted meals and plans. Candidates that failed
// validation never reach this layer.
type MealService struct {
	db               *gorm.DB
	embeddingService EmbeddingServiceInterface
}

// NewMealService creates a new MealService instance
func NewMealService(db *gorm.DB, embeddingService EmbeddingServiceInterface) *MealService {
	return &MealService{
		db:               db,
		embeddingService: embeddingService,
	}
}

// SaveAcceptedMeal writes a validated standalone meal.
func (s *MealService) SaveAcceptedMeal(ctx context.Context, meal validation.Meal, userID uuid.UUID) (*model.Meal, error) {
	row := model.FromValidation(meal, userID)

	vec, err := s.embeddingService.GenerateEmbedding(meal.Name + " " + meal.PrimaryProtein + " " + meal.CuisineType)
	if err != nil {
		return nil, err
	}
	row.Embedding = vec

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveAcceptedPlan writes a validated plan and its seven meals in one
// transaction. Partial plans are never left behind on failure.
func (s *MealService) SaveAcceptedPlan(ctx context.Context, plan validation.Plan, userID uuid.UUID, fingerprint string, varietyScore float64) (*model.MealPlan, error) {
	planRow := model.MealPlan{
		UserID:       userID,
		Fingerprint:  fingerprint,
		VarietyScore: varietyScore,
	}
	if len(plan.Days) > 0 {
		planRow.CookingMethod = string(plan.Days[0].CookingMethod)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&planRow).Error; err != nil {
			return err
		}
		for i, day := range plan.Days {
			row := model.FromValidation(day, userID)
			vec, err := s.embeddingService.GenerateEmbedding(day.Name + " " + day.PrimaryProtein + " " + day.CuisineType)
			if err != nil {
				return err
			}
			row.Embedding = vec
			row.PlanID = &planRow.ID
			dayIndex := i
			row.DayIndex = &dayIndex
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			planRow.Meals = append(planRow.Meals, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &planRow, nil
}

// GetMeal retrieves a meal by ID
func (s *MealService) GetMeal(ctx context.Context, id uuid.UUID) (*model.Meal, error) {
	var meal model.Meal
	if err := s.db.WithContext(ctx).First(&meal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}

// GetPlan retrieves a plan with its meals ordered by day.
func (s *MealService) GetPlan(ctx context.Context, id uuid.UUID) (*model.MealPlan, error) {
	var plan model.MealPlan
	if err := s.db.WithContext(ctx).
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("day_index ASC") }).
		First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans lists a user's plans, newest first.
func (s *MealService) ListPlans(ctx context.Context, userID uuid.UUID) ([]*model.MealPlan, error) {
	var plans []model.MealPlan
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	result := make([]*model.MealPlan, len(plans))
	for i := range plans {
		result[i] = &plans[i]
	}
	return result, nil
}

// FindPlanByFingerprint returns the stored plan for a fingerprint, or
// (nil, nil) when none exists.
func (s *MealService) FindPlanByFingerprint(ctx context.Context, fingerprint string) (*model.MealPlan, error) {
	var plan model.MealPlan
	err := s.db.WithContext(ctx).
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("day_index ASC") }).
		Where("fingerprint = ?", fingerprint).
		First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// SetPlanArchiveKey records where a plan's archived document lives.
func (s *MealService) SetPlanArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	return s.db.WithContext(ctx).
		Model(&model.MealPlan{}).
		Where("id = ?", id).
		Update("archive_key", key).Error
}

// SearchMeals searches stored meals by keyword, with semantic ordering
// on PostgreSQL via the meal embedding.
func (s *MealService) SearchMeals(ctx context.Context, query string) ([]*model.Meal, error) {
	var meals []model.Meal

	dbQuery := s.db.WithContext(ctx)

	if query != "" {
		if s.db.Dialector.Name() == "postgres" {
			vec, err := s.embeddingService.GenerateEmbedding(query)
			if err != nil {
				return nil, err
			}

			subQuery := s.db.Model(&model.Meal{}).
				Select("id, embedding <-> ? as similarity", vec).
				Where("LOWER(name) LIKE ? OR LOWER(primary_protein) LIKE ? OR LOWER(cuisine) LIKE ?",
					"%"+strings.ToLower(query)+"%",
					"%"+strings.ToLower(query)+"%",
					"%"+strings.ToLower(query)+"%",
				)

			dbQuery = dbQuery.Joins("JOIN (?) as search ON meals.id = search.id", subQuery).
				Order("search.similarity ASC")
		} else {
			like := "%" + strings.ToLower(query) + "%"
			dbQuery = dbQuery.Where("LOWER(name) LIKE ? OR LOWER(primary_protein) LIKE ? OR LOWER(cuisine) LIKE ?",
				like, like, like)
		}
	}

	if err := dbQuery.Find(&meals).Error; err != nil {
		return nil, err
	}

	result := make([]*model.Meal, len(meals))
	for i := range meals {
		result[i] = &meals[i]
	}
	return result, nil
}
