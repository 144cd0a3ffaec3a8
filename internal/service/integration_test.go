package service_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadchef/omadchef-v2/backend/internal/service"
	"github.com/omadchef/omadchef-v2/backend/internal/testdb"
)

// Requires Docker; run with INTEGRATION_TESTS=true.
func TestMealServiceAgainstPostgres(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TESTS=true to run.")
	}

	db := testdb.SetupTestDB(t)
	svc := service.NewMealService(db.DB, service.NewEmbeddingService())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.SaveAcceptedMeal(ctx, *goodMeal("chicken massaman", "chicken", "Thai"), userID)
	require.NoError(t, err)
	_, err = svc.SaveAcceptedMeal(ctx, *goodMeal("beef barbacoa", "beef", "Mexican"), userID)
	require.NoError(t, err)

	// Exercises the vector distance path, which sqlite cannot cover.
	meals, err := svc.SearchMeals(ctx, "chicken massaman")
	require.NoError(t, err)
	require.NotEmpty(t, meals)
	assert.Equal(t, "chicken massaman", meals[0].Name)

	saved, err := svc.SaveAcceptedPlan(ctx, *goodPlan(), userID, "fp-integration", 9.0)
	require.NoError(t, err)

	got, err := svc.GetPlan(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, got.Meals, 7)
	assert.Equal(t, 2, len(got.Meals[0].Ingredients))
}
