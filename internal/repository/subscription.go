package repository

import (
	"context"
	"errors"
	"fmt"

	"pawmatch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository handles database operations for subscriptions
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create creates a subscription row
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, sub.ID, sub.UserID, sub.Plan, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByUser retrieves the subscription for a user
func (r *SubscriptionRepository) GetByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan, created_at
		FROM subscriptions
		WHERE user_id = $1
	`
	var sub models.Subscription
	err := r.db.QueryRow(ctx, query, userID).Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}
