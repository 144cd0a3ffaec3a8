package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// JSONBIngredients stores the full ingredient list in a JSONB column.
type JSONBIngredients []validation.Ingredient

// Value implements the driver.Valuer interface
func (a JSONBIngredients) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBIngredients) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBIngredients{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// JSONBInstructions stores the ordered instruction steps in a JSONB column.
type JSONBInstructions []validation.Instruction

// Value implements the driver.Valuer interface
func (a JSONBInstructions) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBInstructions) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBInstructions{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Meal is a persisted meal that passed validation. Draft candidates that
// failed or are still being retried are never written to this table.
type Meal struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      gorm.DeletedAt    `gorm:"index" json:"-"`
	Name           string            `gorm:"size:255;not null" json:"name"`
	CookingMethod  string            `gorm:"size:50;not null" json:"cooking_method"`
	Cuisine        string            `gorm:"size:50" json:"cuisine"`
	PrimaryProtein string            `gorm:"size:50" json:"primary_protein"`
	Ingredients    JSONBIngredients  `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions   JSONBInstructions `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Calories       float64           `gorm:"type:float" json:"calories"`
	Protein        float64           `gorm:"type:float" json:"protein"`
	Carbs          float64           `gorm:"type:float" json:"carbs"`
	Fat            float64           `gorm:"type:float" json:"fat"`
	Fiber          float64           `gorm:"type:float" json:"fiber"`
	Embedding      pgvector.Vector   `gorm:"type:vector(3)" json:"-"`
	UserID         uuid.UUID         `gorm:"type:uuid;not null" json:"user_id"`
	PlanID         *uuid.UUID        `gorm:"type:uuid;index" json:"plan_id,omitempty"`
	DayIndex       *int              `json:"day_index,omitempty"`
}

// MealPlan is a persisted 7-day plan that passed validation, including the
// variety gate. Fingerprint deduplicates requests that normalize to the
// same cache key.
type MealPlan struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	CookingMethod string         `gorm:"size:50;not null" json:"cooking_method"`
	Fingerprint   string         `gorm:"size:64;not null;uniqueIndex" json:"fingerprint"`
	VarietyScore  float64        `gorm:"type:float" json:"variety_score"`
	ArchiveKey    string         `gorm:"size:255" json:"archive_key,omitempty"`
	Meals         []Meal         `gorm:"foreignKey:PlanID" json:"meals,omitempty"`
}

// BeforeCreate assigns IDs client-side so SQLite test databases work
// without gen_random_uuid().
func (m *Meal) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (p *MealPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ToValidation converts a stored meal back into the shape the validators
// and variety analyzer consume.
func (m *Meal) ToValidation() validation.Meal {
	return validation.Meal{
		Name:           m.Name,
		CookingMethod:  validation.CookingMethod(m.CookingMethod),
		CuisineType:    m.Cuisine,
		PrimaryProtein: m.PrimaryProtein,
		Ingredients:    []validation.Ingredient(m.Ingredients),
		Instructions:   []validation.Instruction(m.Instructions),
		Nutrition: validation.NutritionSummary{
			Calories: m.Calories,
			ProteinG: m.Protein,
			CarbsG:   m.Carbs,
			FatG:     m.Fat,
			FiberG:   m.Fiber,
		},
	}
}

// FromValidation builds a Meal row from a validated candidate.
func FromValidation(meal validation.Meal, userID uuid.UUID) Meal {
	return Meal{
		Name:           meal.Name,
		CookingMethod:  string(meal.CookingMethod),
		Cuisine:        meal.CuisineType,
		PrimaryProtein: meal.PrimaryProtein,
		Ingredients:    JSONBIngredients(meal.Ingredients),
		Instructions:   JSONBInstructions(meal.Instructions),
		Calories:       meal.Nutrition.Calories,
		Protein:        meal.Nutrition.ProteinG,
		Carbs:          meal.Nutrition.CarbsG,
		Fat:            meal.Nutrition.FatG,
		Fiber:          meal.Nutrition.FiberG,
		UserID:         userID,
	}
}
