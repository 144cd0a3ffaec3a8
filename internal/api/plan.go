package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omadchef/omadchef-v2/backend/internal/middleware"
	"github.com/omadchef/omadchef-v2/backend/internal/service"
	"github.com/omadchef/omadchef-v2/backend/internal/types"
	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

type PlanHandler struct {
	planner     service.IPlannerService
	meals       service.IMealService
	archive     service.IArchiveService
	authService service.IAuthService
	rateLimiter *middleware.RateLimiter
}

func NewPlanHandler(planner service.IPlannerService, meals service.IMealService, archive service.IArchiveService, authService service.IAuthService, rateLimiter *middleware.RateLimiter) *PlanHandler {
	return &PlanHandler{
		planner:     planner,
		meals:       meals,
		archive:     archive,
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

func (h *PlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plans := router.Group("/plans", middleware.AuthMiddleware(h.authService))
	{
		plans.GET("", h.ListPlans)
		plans.GET("/:id", h.GetPlan)
		plans.GET("/:id/archive", h.PlanArchiveURL)

		generate := plans.Group("")
		if h.rateLimiter != nil {
			generate.Use(h.rateLimiter.RateLimitMiddleware())
		}
		generate.POST("", h.GeneratePlan)
	}
}

// GeneratePlan runs the full generate-validate-retry cycle for a 7-day
// plan, including single-day repair and the variety gate.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	var req types.GeneratePlanRequest
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

	outcome, err := h.planner.GenerateValidatedPlan(c.Request.Context(), userID.(uuid.UUID), service.GenerationRequest{
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

	status := http.StatusCreated
	if outcome.Cached {
		status = http.StatusOK
	}
	c.JSON(status, outcome)
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	plans, err := h.meals.ListPlans(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	plan, err := h.meals.GetPlan(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// PlanArchiveURL returns a short-lived download link for the archived
// plan document.
func (h *PlanHandler) PlanArchiveURL(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive not configured"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	plan, err := h.meals.GetPlan(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if plan.ArchiveKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan has no archive"})
		return
	}

	url, err := h.archive.PlanURL(c.Request.Context(), plan.ArchiveKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate archive URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
