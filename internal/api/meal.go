package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omadchef/omadchef-v2/backend/internal/middleware"
	"github.com/omadchef/omadchef-v2/backend/internal/service"
	"github.com/omadchef/omadchef-v2/backend/internal/types"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

type MealHandler struct {
	planner     service.IPlannerService
	meals       service.IMealService
	authService service.IAuthService
	rateLimiter *middleware.RateLimiter
}

func NewMealHandler(planner service.IPlannerService, meals service.IMealService, authService service.IAuthService, rateLimiter *middleware.RateLimiter) *MealHandler {
	return &MealHandler{
		planner:     planner,
		meals:       meals,
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

func (h *MealHandler) RegisterRoutes(router *gin.RouterGroup) {
	meals := router.Group("/meals")
	{
		meals.GET("", h.SearchMeals)
		meals.GET("/:id", h.GetMeal)
		meals.POST("/evaluate", h.EvaluateMeal)

		generate := meals.Group("", middleware.AuthMiddleware(h.authService))
		if h.rateLimiter != nil {
			generate.Use(h.rateLimiter.RateLimitMiddleware())
		}
		generate.POST("", h.GenerateMeal)
	}
}

// GenerateMeal runs the full generate-validate-retry cycle for one meal.
func (h *MealHandler) GenerateMeal(c *gin.Context) {
	var req types.GenerateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	restrictions := mergeRestrictions(c, h.authService, userID.(uuid.UUID), req.DietaryRestrictions)

	outcome, err := h.planner.GenerateValidatedMeal(c.Request.Context(), userID.(uuid.UUID), service.GenerationRequest{
		CookingMethod:       validation.CookingMethod(req.CookingMethod),
		DietaryRestrictions: restrictions,
		PreferredProteins:   req.PreferredProteins,
		CalorieTarget:       req.CalorieTarget,
		Notes:               req.Notes,
	})
	if err != nil {
		writeGenerationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, outcome)
}

// EvaluateMeal validates a caller-supplied candidate without generating
// or persisting anything.
func (h *MealHandler) EvaluateMeal(c *gin.Context) {
	var req types.EvaluateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eval, err := h.planner.EvaluateCandidate(&req.Meal)
	if err != nil {
		var invalid *validation.InvalidInputError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate meal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nutrition": eval.Nutrition,
		"format":    eval.Format,
		"combined":  eval.Combined(),
	})
}

func (h *MealHandler) GetMeal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal ID"})
		return
	}

	meal, err := h.meals.GetMeal(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meal not found"})
		return
	}

	c.JSON(http.StatusOK, meal)
}

func (h *MealHandler) SearchMeals(c *gin.Context) {
	meals, err := h.meals.SearchMeals(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch meals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// mergeRestrictions folds the user's stored dietary preferences and
// allergens into the request's own restriction list, deduplicated
// case-insensitively. A profile lookup failure falls back to the request
// list alone rather than blocking generation.
func mergeRestrictions(c *gin.Context, auth service.IAuthService, userID uuid.UUID, requested []string) []string {
	stored, err := auth.DietaryRestrictions(c.Request.Context(), userID)
	if err != nil {
		return requested
	}

	seen := make(map[string]struct{}, len(requested)+len(stored))
	merged := make([]string, 0, len(requested)+len(stored))
	for _, r := range append(requested, stored...) {
		key := strings.ToLower(strings.TrimSpace(r))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
	}
	return merged
}

// writeGenerationError maps planner errors onto HTTP statuses: malformed
// candidates are the generator's fault but unretriable, exhausted budgets
// surface the full attempt history, everything else is a plain 500.
func writeGenerationError(c *gin.Context, err error) {
	var invalid *validation.InvalidInputError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Error()})
		return
	}

	var exhausted *service.BudgetExhaustedError
	if errors.As(err, &exhausted) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   exhausted.Error(),
			"history": exhausted.History,
		})
		return
	}

	if errors.Is(err, c.Request.Context().Err()) && c.Request.Context().Err() != nil {
		c.Status(http.StatusRequestTimeout)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
