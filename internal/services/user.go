package services

import (
	"context"
	"fmt"
	"time"

	"pawmatch-backend/internal/config"
	"pawmatch-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const jwtExpDays = 365

type userStore interface {
	Create(ctx context.Context, user *models.User) error
}

type subscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) error
}

type limitCreator interface {
	Create(ctx context.Context, limit *models.UsageLimit) error
}

// UserService handles account bootstrap and token validation. Every created
// account is provisioned with a default free-plan subscription and usage
// limit, so quota checks always find a row.
type UserService struct {
	users     userStore
	subs      subscriptionStore
	limits    limitCreator
	jwtSecret string
	plan      config.PlanConfig
}

// NewUserService creates a new user service
func NewUserService(users userStore, subs subscriptionStore, limits limitCreator, jwtSecret string, plan config.PlanConfig) *UserService {
	return &UserService{
		users:     users,
		subs:      subs,
		limits:    limits,
		jwtSecret: jwtSecret,
		plan:      plan,
	}
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// CreateUser creates a new anonymous user with a default subscription
func (s *UserService) CreateUser(ctx context.Context) (*models.User, error) {
	userID := uuid.New().String()

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user := &models.User{
		ID:        userID,
		Token:     token,
		CreatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.provisionDefaults(ctx, userID); err != nil {
		return nil, err
	}

	return user, nil
}

// provisionDefaults sets up the free-plan subscription and usage limit row
// at account creation, so the quota tracker never has to default anything.
func (s *UserService) provisionDefaults(ctx context.Context, userID string) error {
	now := time.Now()

	sub := &models.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		Plan:      "free",
		CreatedAt: now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return fmt.Errorf("failed to provision subscription: %w", err)
	}

	limit := &models.UsageLimit{
		UserID:           userID,
		MaxPets:          s.plan.MaxPets,
		MaxSwipesPerDay:  s.plan.MaxSwipesPerDay,
		SwipesToday:      0,
		LastSwipeResetAt: now,
		BoostsRemaining:  s.plan.Boosts,
		CanBoost:         s.plan.Boosts > 0,
	}
	if err := s.limits.Create(ctx, limit); err != nil {
		return fmt.Errorf("failed to provision usage limit: %w", err)
	}

	return nil
}
