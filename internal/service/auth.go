package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/omadchef/omadchef-v2/backend/internal/models"
	"github.com/omadchef/omadchef-v2/backend/internal/types"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
	}
}

func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (string, error) {
	// Check if user already exists
	var existingUser models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return "", errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := models.User{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		TelegramChatID: req.TelegramChatID,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return "", err
	}

	for _, p := range req.DietaryRestrictions {
		pref := strings.TrimSpace(p)
		if pref == "" {
			continue
		}
		dp := models.DietaryPreference{
			UserID:         user.ID,
			PreferenceType: pref,
		}
		if err := s.db.WithContext(ctx).Create(&dp).Error; err != nil {
			return "", err
		}
	}

	return s.generateToken(&user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.generateToken(&user)
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Name,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userIDStr, ok := claims["user_id"].(string)
		if !ok {
			return nil, errors.New("invalid token claims")
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return nil, err
		}

		username, _ := claims["username"].(string)

		return &types.TokenClaims{
			UserID:   userID,
			Username: username,
		}, nil
	}

	return nil, errors.New("invalid token")
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DietaryRestrictions returns the user's stored preference types plus
// allergen names, merged into the restriction list sent to the generator.
func (s *AuthService) DietaryRestrictions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var prefs []models.DietaryPreference
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&prefs).Error; err != nil {
		return nil, err
	}
	var allergens []models.Allergen
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&allergens).Error; err != nil {
		return nil, err
	}

	restrictions := make([]string, 0, len(prefs)+len(allergens))
	for _, p := range prefs {
		restrictions = append(restrictions, p.PreferenceType)
	}
	for _, a := range allergens {
		restrictions = append(restrictions, "no "+a.AllergenName)
	}
	return restrictions, nil
}
