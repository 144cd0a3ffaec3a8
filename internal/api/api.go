package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/omadchef/omadchef-v2/backend/config"
	"github.com/omadchef/omadchef-v2/backend/internal/middleware"
	"github.com/omadchef/omadchef-v2/backend/internal/service"
)

// SetupAPI wires the services and registers every route group under
// /api/v1. The generator and archive are optional so tests and local
// setups can run without external credentials.
func SetupAPI(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, s3cfg *config.S3Config) error {
	authService := service.NewAuthService(db, cfg.JWTSecret)
	embeddingService := service.NewEmbeddingService()
	mealService := service.NewMealService(db, embeddingService)
	cacheService := service.NewCacheService(redisClient)

	generator, err := service.NewGeneratorService(cfg.GeneratorAPIKey, cfg.GeneratorAPIURL)
	if err != nil {
		return err
	}

	var archiveService service.IArchiveService
	if s3cfg != nil {
		archiveService = service.NewArchiveService(s3cfg)
	}

	plannerService := service.NewPlannerService(generator, cacheService, mealService, archiveService, cfg.Policy)

	mealLimiter := middleware.NewMealGenerationRateLimiter(redisClient)
	planLimiter := middleware.NewPlanGenerationRateLimiter(redisClient)

	healthHandler := NewHealthHandler(db, redisClient)
	healthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	{
		authHandler := NewAuthHandler(authService)
		mealHandler := NewMealHandler(plannerService, mealService, authService, mealLimiter)
		planHandler := NewPlanHandler(plannerService, mealService, archiveService, authService, planLimiter)

		authHandler.RegisterRoutes(v1)
		mealHandler.RegisterRoutes(v1)
		planHandler.RegisterRoutes(v1)
	}

	return nil
}
