package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/omadchef/omadchef-v2/backend/config"
	"github.com/omadchef/omadchef-v2/backend/internal/api"
	"github.com/omadchef/omadchef-v2/backend/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New creates a new server instance with all routes registered.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3cfg *config.S3Config) (*Server, error) {
	router := gin.New()
	router.Use(gin.Logger(), middleware.ErrorHandler(), middleware.CORS())

	if err := api.SetupAPI(router, db, redisClient, cfg, s3cfg); err != nil {
		return nil, err
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: router,
		},
	}, nil
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
