package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawmatch-backend/internal/models"
	"pawmatch-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type likeStore interface {
	Create(ctx context.Context, like *models.Like) error
	Exists(ctx context.Context, fromPetID, toPetID string) (bool, error)
}

type matchStore interface {
	CreateIfAbsent(ctx context.Context, match *models.Match) (*models.Match, bool, error)
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Match, error)
}

type petReader interface {
	GetByID(ctx context.Context, id string) (*models.Pet, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*models.Pet, error)
}

// notifier is the injected broker surface for match notifications. No global
// handle: anything that emits realtime events receives the hub explicitly.
type notifier interface {
	SendToUser(userID string, ev Event) error
	IsOnline(userID string) bool
}

// LikeResult is the outcome of recording a like
type LikeResult struct {
	Created         bool          `json:"created"`
	IsMatch         bool          `json:"is_match"`
	Match           *models.Match `json:"match,omitempty"`
	SwipesRemaining int           `json:"swipes_remaining"`
}

// SwipeService owns the swipe ledger and match detection. A like is recorded
// only after the quota check passes, and the quota unit is charged only after
// the ledger write succeeds.
type SwipeService struct {
	pets    petReader
	likes   likeStore
	matches matchStore
	quota   *QuotaTracker
	hub     notifier
	now     func() time.Time
}

// NewSwipeService creates a new swipe service
func NewSwipeService(pets petReader, likes likeStore, matches matchStore, quota *QuotaTracker, hub notifier) *SwipeService {
	return &SwipeService{
		pets:    pets,
		likes:   likes,
		matches: matches,
		quota:   quota,
		hub:     hub,
		now:     time.Now,
	}
}

// RecordLike records a like from the caller's pet toward toPetID and creates
// a match when the reciprocal like already exists. Match creation is an
// insert-if-absent keyed by the canonical pet pair, so concurrent
// opposite-direction likes produce exactly one match row.
func (s *SwipeService) RecordLike(ctx context.Context, userID, toPetID string) (*LikeResult, error) {
	target, err := s.pets.GetByID(ctx, toPetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("pet %s: %w", toPetID, ErrPetNotFound)
		}
		return nil, err
	}

	if target.OwnerID == userID {
		return nil, ErrSelfLike
	}

	own, err := s.pets.GetByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller pets: %w", err)
	}
	if len(own) == 0 {
		return nil, ErrNoPetProfile
	}
	fromPet := own[0]

	dec, err := s.quota.CheckAndReserve(ctx, userID, ResourceSwipe)
	if err != nil {
		return nil, err
	}
	if !dec.Allowed {
		return nil, &QuotaError{Resource: ResourceSwipe, Reason: dec.Reason, Upgradeable: dec.Upgradeable}
	}

	like := &models.Like{
		ID:        uuid.New().String(),
		FromPetID: fromPet.ID,
		ToPetID:   toPetID,
		CreatedAt: s.now(),
	}
	if err := s.likes.Create(ctx, like); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("pet %s -> %s: %w", fromPet.ID, toPetID, ErrAlreadyLiked)
		}
		return nil, err
	}

	result := &LikeResult{Created: true, SwipesRemaining: dec.Remaining}

	reciprocal, err := s.likes.Exists(ctx, toPetID, fromPet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reciprocal like: %w", err)
	}
	if reciprocal {
		match, created, err := s.createMatch(ctx, fromPet, target, userID)
		if err != nil {
			return nil, err
		}
		result.IsMatch = true
		result.Match = match
		if created {
			s.notifyMatch(match)
		}
	}

	// Charge the quota only now that the like is durable, so a rejected
	// request never costs a swipe.
	if err := s.quota.Commit(ctx, userID, ResourceSwipe); err != nil {
		var qErr *QuotaError
		if !errors.As(err, &qErr) {
			return nil, err
		}
		// Parallel swipes consumed the last unit between check and commit.
		// The like stands; report zero remaining.
		result.SwipesRemaining = 0
		return result, nil
	}

	if result.SwipesRemaining > 0 {
		result.SwipesRemaining--
	}
	return result, nil
}

// createMatch builds the canonical-pair match and inserts it idempotently,
// retrying once on a transient storage failure.
func (s *SwipeService) createMatch(ctx context.Context, fromPet, target *models.Pet, userID string) (*models.Match, bool, error) {
	petAID, petBID := fromPet.ID, target.ID
	userAID, userBID := userID, target.OwnerID
	if petAID > petBID {
		petAID, petBID = petBID, petAID
		userAID, userBID = userBID, userAID
	}

	candidate := &models.Match{
		ID:        uuid.New().String(),
		PetAID:    petAID,
		PetBID:    petBID,
		UserAID:   userAID,
		UserBID:   userBID,
		CreatedAt: s.now(),
	}

	match, created, err := s.matches.CreateIfAbsent(ctx, candidate)
	if err != nil {
		log.Warn().Err(err).Str("pet_a_id", petAID).Str("pet_b_id", petBID).
			Msg("Match creation failed, retrying once")
		match, created, err = s.matches.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create match after retry: %w", err)
		}
	}
	return match, created, nil
}

// notifyMatch pushes a new_match event to both owners' live connections
func (s *SwipeService) notifyMatch(match *models.Match) {
	ev := NewMatchEvent(match)
	for _, userID := range []string{match.UserAID, match.UserBID} {
		if !s.hub.IsOnline(userID) {
			continue
		}
		if err := s.hub.SendToUser(userID, ev); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("match_id", match.ID).
				Msg("Failed to notify user about match")
		}
	}
}

// GetMatch retrieves a match the caller participates in
func (s *SwipeService) GetMatch(ctx context.Context, userID, matchID string) (*models.Match, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
		}
		return nil, err
	}
	if !match.HasUser(userID) {
		return nil, ErrForbidden
	}
	return match, nil
}

// ListMatches retrieves all matches for the caller, newest first
func (s *SwipeService) ListMatches(ctx context.Context, userID string) ([]*models.Match, error) {
	return s.matches.ListByUser(ctx, userID)
}
