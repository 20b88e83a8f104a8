package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawmatch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageLimitRepository handles database operations for quota counters. All
// mutations are conditional single-statement updates so concurrent requests
// never lose an increment or apply a reset twice.
type UsageLimitRepository struct {
	db *pgxpool.Pool
}

// NewUsageLimitRepository creates a new usage limit repository
func NewUsageLimitRepository(db *pgxpool.Pool) *UsageLimitRepository {
	return &UsageLimitRepository{db: db}
}

// Create creates a usage limit row for a user
func (r *UsageLimitRepository) Create(ctx context.Context, limit *models.UsageLimit) error {
	query := `
		INSERT INTO usage_limits (
			user_id, max_pets, max_swipes_per_day, swipes_today, last_swipe_reset_at,
			boosts_remaining, can_boost, can_see_who_liked, can_undo_swipe
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		limit.UserID, limit.MaxPets, limit.MaxSwipesPerDay, limit.SwipesToday,
		limit.LastSwipeResetAt, limit.BoostsRemaining, limit.CanBoost,
		limit.CanSeeWhoLiked, limit.CanUndoSwipe,
	)
	if err != nil {
		return fmt.Errorf("failed to create usage limit: %w", err)
	}
	return nil
}

// Get retrieves the usage limit row for a user
func (r *UsageLimitRepository) Get(ctx context.Context, userID string) (*models.UsageLimit, error) {
	query := `
		SELECT user_id, max_pets, max_swipes_per_day, swipes_today, last_swipe_reset_at,
		       boosts_remaining, can_boost, can_see_who_liked, can_undo_swipe
		FROM usage_limits
		WHERE user_id = $1
	`
	var limit models.UsageLimit
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&limit.UserID, &limit.MaxPets, &limit.MaxSwipesPerDay, &limit.SwipesToday,
		&limit.LastSwipeResetAt, &limit.BoostsRemaining, &limit.CanBoost,
		&limit.CanSeeWhoLiked, &limit.CanUndoSwipe,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("usage limit not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get usage limit: %w", err)
	}
	return &limit, nil
}

// ResetDailyIfDue zeroes the daily swipe counter when the stored reset stamp
// is at or before cutoff. The condition makes the reset apply exactly once no
// matter how many readers observe the counter as stale concurrently.
func (r *UsageLimitRepository) ResetDailyIfDue(ctx context.Context, userID string, cutoff, now time.Time) error {
	query := `
		UPDATE usage_limits
		SET swipes_today = 0, last_swipe_reset_at = $3
		WHERE user_id = $1 AND last_swipe_reset_at <= $2
	`
	_, err := r.db.Exec(ctx, query, userID, cutoff, now)
	if err != nil {
		return fmt.Errorf("failed to reset daily swipes: %w", err)
	}
	return nil
}

// IncrementSwipes adds one to the daily swipe counter, but only while the
// counter is still below the plan limit. Returns false when the conditional
// update matched no row, i.e. the quota is exhausted. Two racing commits at
// the last remaining unit serialize on the row update, so only one can land.
func (r *UsageLimitRepository) IncrementSwipes(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE usage_limits
		SET swipes_today = swipes_today + 1
		WHERE user_id = $1
		  AND (max_swipes_per_day = -1 OR swipes_today < max_swipes_per_day)
	`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to increment swipes: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ConsumeBoost decrements the boost counter while one remains and the plan
// allows boosting. Returns false when no boost could be consumed.
func (r *UsageLimitRepository) ConsumeBoost(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE usage_limits
		SET boosts_remaining = boosts_remaining - 1
		WHERE user_id = $1 AND can_boost AND boosts_remaining > 0
	`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to consume boost: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
