package repository

import (
	"context"
	"fmt"

	"pawmatch-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LikeRepository handles database operations for the swipe ledger
type LikeRepository struct {
	db *pgxpool.Pool
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create appends a like to the ledger. The (from_pet_id, to_pet_id) pair is
// unique; a second insert for the same ordered pair returns ErrDuplicate so
// the caller can distinguish "new like" from "already liked".
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	query := `
		INSERT INTO likes (id, from_pet_id, to_pet_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_pet_id, to_pet_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, like.ID, like.FromPetID, like.ToPetID, like.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("like already exists: %w", ErrDuplicate)
	}
	return nil
}

// Exists reports whether a like for the exact ordered pair exists
func (r *LikeRepository) Exists(ctx context.Context, fromPetID, toPetID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE from_pet_id = $1 AND to_pet_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, fromPetID, toPetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}
	return exists, nil
}
