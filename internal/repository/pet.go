package repository

import (
	"context"
	"errors"
	"fmt"

	"pawmatch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PetRepository handles database operations for pets
type PetRepository struct {
	db *pgxpool.Pool
}

// NewPetRepository creates a new pet repository
func NewPetRepository(db *pgxpool.Pool) *PetRepository {
	return &PetRepository{db: db}
}

// Create creates a new pet
func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) error {
	query := `
		INSERT INTO pets (id, owner_id, name, species, breed, bio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		pet.ID, pet.OwnerID, pet.Name, pet.Species, pet.Breed, pet.Bio, pet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

// GetByID retrieves a pet by ID
func (r *PetRepository) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	query := `
		SELECT id, owner_id, name, species, breed, bio, created_at
		FROM pets
		WHERE id = $1
	`
	var pet models.Pet
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pet.ID, &pet.OwnerID, &pet.Name, &pet.Species, &pet.Breed, &pet.Bio, &pet.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pet not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return &pet, nil
}

// GetByOwner retrieves all pets owned by a user, oldest first
func (r *PetRepository) GetByOwner(ctx context.Context, ownerID string) ([]*models.Pet, error) {
	query := `
		SELECT id, owner_id, name, species, breed, bio, created_at
		FROM pets
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pets by owner: %w", err)
	}
	defer rows.Close()

	var pets []*models.Pet
	for rows.Next() {
		var pet models.Pet
		err := rows.Scan(
			&pet.ID, &pet.OwnerID, &pet.Name, &pet.Species, &pet.Breed, &pet.Bio, &pet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, &pet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pets: %w", err)
	}

	return pets, nil
}

// CountByOwner returns the number of pets owned by a user
func (r *PetRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	query := `SELECT COUNT(*) FROM pets WHERE owner_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pets: %w", err)
	}
	return count, nil
}

// ListAvailable retrieves pets a user can still swipe on: not their own pets
// and not already liked by any of their pets. Species narrows the result when
// non-empty.
func (r *PetRepository) ListAvailable(ctx context.Context, userID, species string, limit, offset int) ([]*models.Pet, error) {
	query := `
		SELECT p.id, p.owner_id, p.name, p.species, p.breed, p.bio, p.created_at
		FROM pets p
		WHERE p.owner_id <> $1
		  AND ($2 = '' OR p.species = $2)
		  AND NOT EXISTS (
			SELECT 1
			FROM likes l
			JOIN pets mine ON mine.id = l.from_pet_id
			WHERE mine.owner_id = $1 AND l.to_pet_id = p.id
		  )
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, userID, species, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list available pets: %w", err)
	}
	defer rows.Close()

	var pets []*models.Pet
	for rows.Next() {
		var pet models.Pet
		err := rows.Scan(
			&pet.ID, &pet.OwnerID, &pet.Name, &pet.Species, &pet.Breed, &pet.Bio, &pet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, &pet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pets: %w", err)
	}

	return pets, nil
}
