package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pawmatch-backend/internal/models"

	"github.com/google/uuid"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type petStore interface {
	petReader
	Create(ctx context.Context, pet *models.Pet) error
	ListAvailable(ctx context.Context, userID, species string, limit, offset int) ([]*models.Pet, error)
}

// FeedFilters narrows the swipe feed
type FeedFilters struct {
	Species string
	Limit   int
	Offset  int
}

// PetService handles pet profile creation and the swipe feed
type PetService struct {
	pets  petStore
	quota *QuotaTracker
}

// NewPetService creates a new pet service
func NewPetService(pets petStore, quota *QuotaTracker) *PetService {
	return &PetService{pets: pets, quota: quota}
}

// CreatePet creates a pet profile, consuming a pet slot from the caller's plan
func (s *PetService) CreatePet(ctx context.Context, ownerID, name, species, breed, bio string) (*models.Pet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("pet name is required")
	}
	if species == "" {
		return nil, fmt.Errorf("pet species is required")
	}

	dec, err := s.quota.CheckAndReserve(ctx, ownerID, ResourcePetSlot)
	if err != nil {
		return nil, err
	}
	if !dec.Allowed {
		return nil, &QuotaError{Resource: ResourcePetSlot, Reason: dec.Reason, Upgradeable: dec.Upgradeable}
	}

	pet := &models.Pet{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Species:   species,
		Breed:     breed,
		Bio:       bio,
		CreatedAt: time.Now(),
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, err
	}
	return pet, nil
}

// AvailablePets returns the pets the caller can still swipe on: everyone
// else's pets minus the ones any of the caller's pets already liked.
func (s *PetService) AvailablePets(ctx context.Context, userID string, filters FeedFilters) ([]*models.Pet, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	pets, err := s.pets.ListAvailable(ctx, userID, filters.Species, limit, offset)
	if err != nil {
		return nil, err
	}
	return pets, nil
}
