package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// validatedTTL bounds how long a validated result is reused before a
// fresh generation is forced.
const validatedTTL = 24 * time.Hour

// CacheService stores validated meals and plans in Redis keyed by the
// request fingerprint. Only candidates that passed validation are ever
// written; a cache hit skips generation and validation entirely.
type CacheService struct {
	redis *redis.Client
}

// NewCacheService creates a new CacheService instance
func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{redis: client}
}

// GetValidatedMeal retrieves a validated meal by fingerprint. A cache
// miss returns (nil, nil).
func (s *CacheService) GetValidatedMeal(ctx context.Context, fingerprint string) (*validation.Meal, error) {
	key := fmt.Sprintf("meal:validated:%s", fingerprint)
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal from Redis: %w", err)
	}

	var meal validation.Meal
	if err := json.Unmarshal(data, &meal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal: %w", err)
	}
	return &meal, nil
}

// SetValidatedMeal caches a validated meal under its fingerprint.
func (s *CacheService) SetValidatedMeal(ctx context.Context, fingerprint string, meal *validation.Meal) error {
	data, err := json.Marshal(meal)
	if err != nil {
		return fmt.Errorf("failed to marshal meal: %w", err)
	}

	key := fmt.Sprintf("meal:validated:%s", fingerprint)
	if err := s.redis.Set(ctx, key, data, validatedTTL).Err(); err != nil {
		return fmt.Errorf("failed to save meal to Redis: %w", err)
	}
	return nil
}

// GetValidatedPlan retrieves a validated plan by fingerprint. A cache
// miss returns (nil, nil).
func (s *CacheService) GetValidatedPlan(ctx context.Context, fingerprint string) (*validation.Plan, error) {
	key := fmt.Sprintf("plan:validated:%s", fingerprint)
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan from Redis: %w", err)
	}

	var plan validation.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// SetValidatedPlan caches a validated plan under its fingerprint.
func (s *CacheService) SetValidatedPlan(ctx context.Context, fingerprint string, plan *validation.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	key := fmt.Sprintf("plan:validated:%s", fingerprint)
	if err := s.redis.Set(ctx, key, data, validatedTTL).Err(); err != nil {
		return fmt.Errorf("failed to save plan to Redis: %w", err)
	}
	return nil
}
