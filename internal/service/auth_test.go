package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omadchef/omadchef-v2/backend/internal/models"
	"github.com/omadchef/omadchef-v2/backend/internal/service"
	"github.com/omadchef/omadchef-v2/backend/internal/types"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *service.AuthService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DietaryPreference{},
		&models.Allergen{},
	))

	return db, service.NewAuthService(db, "test-secret")
}

func TestRegisterAndLogin(t *testing.T) {
	db, authSvc := setupAuthTest(t)
	ctx := context.Background()

	token, err := authSvc.Register(ctx, &types.RegisterRequest{
		Name:                "Tester",
		Email:               "t@example.com",
		Password:            "password123",
		TelegramChatID:      12345,
		DietaryRestrictions: []string{"vegetarian", "gluten-free"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var user models.User
	require.NoError(t, db.Where("email = ?", "t@example.com").First(&user).Error)
	assert.Equal(t, int64(12345), user.TelegramChatID)

	claims, err := authSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "Tester", claims.Username)

	var prefs []models.DietaryPreference
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&prefs).Error)
	assert.Len(t, prefs, 2)

	loginToken, err := authSvc.Login(ctx, "t@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, authSvc := setupAuthTest(t)
	ctx := context.Background()

	req := &types.RegisterRequest{Name: "A", Email: "dup@example.com", Password: "password123"}
	_, err := authSvc.Register(ctx, req)
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, req)
	assert.Error(t, err)
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, authSvc := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, &types.RegisterRequest{
		Name: "B", Email: "b@example.com", Password: "password123",
	})
	require.NoError(t, err)

	_, err = authSvc.Login(ctx, "b@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = authSvc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, authSvc := setupAuthTest(t)

	_, err := authSvc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestDietaryRestrictionsMergesAllergens(t *testing.T) {
	db, authSvc := setupAuthTest(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, &types.RegisterRequest{
		Name: "C", Email: "c@example.com", Password: "password123",
		DietaryRestrictions: []string{"vegetarian"},
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("email = ?", "c@example.com").First(&user).Error)
	require.NoError(t, db.Create(&models.Allergen{UserID: user.ID, AllergenName: "peanuts", SeverityLevel: 3}).Error)

	restrictions, err := authSvc.DietaryRestrictions(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"vegetarian", "no peanuts"}, restrictions)
}
