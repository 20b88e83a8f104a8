package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawmatch-backend/internal/models"
	"pawmatch-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Resource identifies a quota-governed allowance
type Resource string

const (
	ResourceSwipe   Resource = "swipe"
	ResourceBoost   Resource = "boost"
	ResourcePetSlot Resource = "pet_slot"
)

// swipeResetInterval is how long a daily swipe counter lives before the next
// read or write lazily resets it.
const swipeResetInterval = 24 * time.Hour

// Decision is the outcome of a quota check. Remaining is -1 for unlimited
// plans. Reason is set only when the check was denied.
type Decision struct {
	Allowed     bool
	Remaining   int
	Reason      string
	Upgradeable bool
}

type limitStore interface {
	Get(ctx context.Context, userID string) (*models.UsageLimit, error)
	ResetDailyIfDue(ctx context.Context, userID string, cutoff, now time.Time) error
	IncrementSwipes(ctx context.Context, userID string) (bool, error)
	ConsumeBoost(ctx context.Context, userID string) (bool, error)
}

type petCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// QuotaTracker enforces per-user, per-plan usage allowances. A successful
// check does not consume a unit; callers invoke Commit once the downstream
// action has succeeded, so a request that fails validation is never charged.
type QuotaTracker struct {
	limits limitStore
	pets   petCounter
	now    func() time.Time
}

// NewQuotaTracker creates a new quota tracker
func NewQuotaTracker(limits limitStore, pets petCounter) *QuotaTracker {
	return &QuotaTracker{limits: limits, pets: pets, now: time.Now}
}

// Reconcile applies the lazy daily reset to a usage limit and returns the
// normalized copy. Pure: it never touches storage, which keeps the reset rule
// testable without clock mocking.
func Reconcile(limit models.UsageLimit, now time.Time) models.UsageLimit {
	if now.Sub(limit.LastSwipeResetAt) >= swipeResetInterval {
		limit.SwipesToday = 0
		limit.LastSwipeResetAt = now
	}
	return limit
}

// CheckAndReserve evaluates whether a user may consume one unit of a
// resource. A missing usage limit row is reported as ErrSubscriptionNotFound,
// never defaulted to unlimited.
func (t *QuotaTracker) CheckAndReserve(ctx context.Context, userID string, resource Resource) (Decision, error) {
	limit, err := t.limits.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Decision{}, fmt.Errorf("user %s: %w", userID, ErrSubscriptionNotFound)
		}
		return Decision{}, err
	}

	now := t.now()

	switch resource {
	case ResourceSwipe:
		reconciled := Reconcile(*limit, now)
		if !reconciled.LastSwipeResetAt.Equal(limit.LastSwipeResetAt) {
			// The stored counter is stale. The conditional update applies the
			// reset exactly once even if several requests observe this together.
			cutoff := now.Add(-swipeResetInterval)
			if err := t.limits.ResetDailyIfDue(ctx, userID, cutoff, now); err != nil {
				return Decision{}, err
			}
		}
		if reconciled.MaxSwipesPerDay == -1 {
			return Decision{Allowed: true, Remaining: -1}, nil
		}
		if reconciled.SwipesToday < reconciled.MaxSwipesPerDay {
			return Decision{Allowed: true, Remaining: reconciled.MaxSwipesPerDay - reconciled.SwipesToday}, nil
		}
		return Decision{
			Reason:      "daily swipe limit reached",
			Upgradeable: true,
		}, nil

	case ResourceBoost:
		if !limit.CanBoost {
			return Decision{Reason: "your plan does not include boosts", Upgradeable: true}, nil
		}
		if limit.BoostsRemaining <= 0 {
			return Decision{Reason: "no boosts remaining"}, nil
		}
		return Decision{Allowed: true, Remaining: limit.BoostsRemaining}, nil

	case ResourcePetSlot:
		if limit.MaxPets == -1 {
			return Decision{Allowed: true, Remaining: -1}, nil
		}
		count, err := t.pets.CountByOwner(ctx, userID)
		if err != nil {
			return Decision{}, err
		}
		if count < limit.MaxPets {
			return Decision{Allowed: true, Remaining: limit.MaxPets - count}, nil
		}
		return Decision{Reason: "pet slot limit reached", Upgradeable: true}, nil

	default:
		return Decision{}, fmt.Errorf("unknown resource %q", resource)
	}
}

// Commit charges one unit of a resource after the downstream action has
// succeeded. The increment is a conditional update against the stored
// counter, so two racing commits at the final unit can never both land. A
// transient storage failure is retried once; the update is safe to repeat
// only after a failure, since a failed Exec changed nothing.
func (t *QuotaTracker) Commit(ctx context.Context, userID string, resource Resource) error {
	switch resource {
	case ResourceSwipe:
		ok, err := t.commitSwipe(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return &QuotaError{Resource: ResourceSwipe, Reason: "daily swipe limit reached", Upgradeable: true}
		}
		return nil

	case ResourceBoost:
		ok, err := t.limits.ConsumeBoost(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return &QuotaError{Resource: ResourceBoost, Reason: "no boosts remaining"}
		}
		return nil

	case ResourcePetSlot:
		// Pet slots are derived from the pets table; creating the pet is the
		// commit.
		return nil

	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
}

func (t *QuotaTracker) commitSwipe(ctx context.Context, userID string) (bool, error) {
	ok, err := t.limits.IncrementSwipes(ctx, userID)
	if err == nil {
		return ok, nil
	}

	log.Warn().Err(err).Str("user_id", userID).Msg("Swipe commit failed, retrying once")
	ok, retryErr := t.limits.IncrementSwipes(ctx, userID)
	if retryErr != nil {
		return false, fmt.Errorf("failed to commit swipe after retry: %w", retryErr)
	}
	return ok, nil
}

// UseBoost reserves and commits a boost in one call
func (t *QuotaTracker) UseBoost(ctx context.Context, userID string) (int, error) {
	dec, err := t.CheckAndReserve(ctx, userID, ResourceBoost)
	if err != nil {
		return 0, err
	}
	if !dec.Allowed {
		return 0, &QuotaError{Resource: ResourceBoost, Reason: dec.Reason, Upgradeable: dec.Upgradeable}
	}
	if err := t.Commit(ctx, userID, ResourceBoost); err != nil {
		return 0, err
	}
	return dec.Remaining - 1, nil
}
