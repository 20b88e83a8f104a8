package repository

import (
	"context"
	"errors"
	"fmt"

	"pawmatch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository handles database operations for matches
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateIfAbsent inserts a match for the canonical pet pair unless one
// already exists. The pair columns carry a uniqueness constraint, so when two
// opposite-direction likes race, exactly one insert wins; the loser reads the
// winner's row and reports created=false.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, match *models.Match) (*models.Match, bool, error) {
	query := `
		INSERT INTO matches (id, pet_a_id, pet_b_id, user_a_id, user_b_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pet_a_id, pet_b_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query,
		match.ID, match.PetAID, match.PetBID, match.UserAID, match.UserBID, match.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create match: %w", err)
	}
	if result.RowsAffected() == 1 {
		return match, true, nil
	}

	existing, err := r.GetByPetPair(ctx, match.PetAID, match.PetBID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing match: %w", err)
	}
	return existing, false, nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `
		SELECT id, pet_a_id, pet_b_id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE id = $1
	`
	var match models.Match
	err := r.db.QueryRow(ctx, query, id).Scan(
		&match.ID, &match.PetAID, &match.PetBID, &match.UserAID, &match.UserBID, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("match not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}

// GetByPetPair retrieves a match by its canonical pet pair
func (r *MatchRepository) GetByPetPair(ctx context.Context, petAID, petBID string) (*models.Match, error) {
	query := `
		SELECT id, pet_a_id, pet_b_id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE pet_a_id = $1 AND pet_b_id = $2
	`
	var match models.Match
	err := r.db.QueryRow(ctx, query, petAID, petBID).Scan(
		&match.ID, &match.PetAID, &match.PetBID, &match.UserAID, &match.UserBID, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("match not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match by pet pair: %w", err)
	}
	return &match, nil
}

// ListByUser retrieves all matches a user participates in, newest first
func (r *MatchRepository) ListByUser(ctx context.Context, userID string) ([]*models.Match, error) {
	query := `
		SELECT id, pet_a_id, pet_b_id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var match models.Match
		err := rows.Scan(
			&match.ID, &match.PetAID, &match.PetBID, &match.UserAID, &match.UserBID, &match.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}
