package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pawmatch-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuotaFixture(limit models.UsageLimit) (*QuotaTracker, *fakeLimitStore) {
	limits := newFakeLimitStore()
	limits.put(limit)
	tracker := NewQuotaTracker(limits, newFakePetStore())
	return tracker, limits
}

func TestReconcile(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh counter untouched", func(t *testing.T) {
		limit := models.UsageLimit{SwipesToday: 3, LastSwipeResetAt: now.Add(-time.Hour)}
		got := Reconcile(limit, now)
		assert.Equal(t, 3, got.SwipesToday)
		assert.Equal(t, limit.LastSwipeResetAt, got.LastSwipeResetAt)
	})

	t.Run("stale counter reset", func(t *testing.T) {
		limit := models.UsageLimit{SwipesToday: 3, LastSwipeResetAt: now.Add(-25 * time.Hour)}
		got := Reconcile(limit, now)
		assert.Equal(t, 0, got.SwipesToday)
		assert.Equal(t, now, got.LastSwipeResetAt)
	})

	t.Run("reset at exactly 24h", func(t *testing.T) {
		limit := models.UsageLimit{SwipesToday: 3, LastSwipeResetAt: now.Add(-24 * time.Hour)}
		got := Reconcile(limit, now)
		assert.Equal(t, 0, got.SwipesToday)
	})

	t.Run("idempotent", func(t *testing.T) {
		limit := models.UsageLimit{SwipesToday: 7, LastSwipeResetAt: now.Add(-48 * time.Hour)}
		once := Reconcile(limit, now)
		twice := Reconcile(once, now)
		assert.Equal(t, once, twice)
	})
}

func TestCheckAndReserve_SwipeExhausted(t *testing.T) {
	tracker, _ := newQuotaFixture(models.UsageLimit{
		UserID:           "u1",
		MaxSwipesPerDay:  5,
		SwipesToday:      5,
		LastSwipeResetAt: time.Now(),
	})

	dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourceSwipe)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
	assert.True(t, dec.Upgradeable)
	assert.NotEmpty(t, dec.Reason)
}

func TestCheckAndReserve_UnlimitedPlan(t *testing.T) {
	tracker, _ := newQuotaFixture(models.UsageLimit{
		UserID:           "u1",
		MaxSwipesPerDay:  -1,
		SwipesToday:      9000,
		LastSwipeResetAt: time.Now(),
	})

	dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourceSwipe)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, -1, dec.Remaining)
}

func TestCheckAndReserve_LazyResetAppliesOnce(t *testing.T) {
	now := time.Now()
	tracker, limits := newQuotaFixture(models.UsageLimit{
		UserID:           "u1",
		MaxSwipesPerDay:  5,
		SwipesToday:      5,
		LastSwipeResetAt: now.Add(-25 * time.Hour),
	})

	// Several reads of a stale counter must produce exactly one reset.
	for i := 0; i < 3; i++ {
		dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourceSwipe)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, 5, dec.Remaining)
	}

	limits.mu.Lock()
	resets := limits.resetsApplied
	stored := *limits.limits["u1"]
	limits.mu.Unlock()

	assert.Equal(t, 1, resets)
	assert.Equal(t, 0, stored.SwipesToday)
}

func TestCheckAndReserve_SubscriptionMissing(t *testing.T) {
	tracker := NewQuotaTracker(newFakeLimitStore(), newFakePetStore())

	_, err := tracker.CheckAndReserve(context.Background(), "ghost", ResourceSwipe)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestCheckAndReserve_Boost(t *testing.T) {
	t.Run("plan without boosts", func(t *testing.T) {
		tracker, _ := newQuotaFixture(models.UsageLimit{UserID: "u1", CanBoost: false, BoostsRemaining: 3})
		dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourceBoost)
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.True(t, dec.Upgradeable)
	})

	t.Run("boosts exhausted", func(t *testing.T) {
		tracker, _ := newQuotaFixture(models.UsageLimit{UserID: "u1", CanBoost: true, BoostsRemaining: 0})
		dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourceBoost)
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
	})

	t.Run("boost available", func(t *testing.T) {
		tracker, _ := newQuotaFixture(models.UsageLimit{UserID: "u1", CanBoost: true, BoostsRemaining: 2})
		dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourceBoost)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, 2, dec.Remaining)
	})
}

func TestCheckAndReserve_PetSlot(t *testing.T) {
	limits := newFakeLimitStore()
	limits.put(models.UsageLimit{UserID: "u1", MaxPets: 1, LastSwipeResetAt: time.Now()})
	pets := newFakePetStore(&models.Pet{ID: "p1", OwnerID: "u1"})
	tracker := NewQuotaTracker(limits, pets)

	dec, err := tracker.CheckAndReserve(context.Background(), "u1", ResourcePetSlot)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.True(t, dec.Upgradeable)
}

func TestCommit_ConcurrentSwipesStayWithinLimit(t *testing.T) {
	const maxPerDay = 10
	tracker, limits := newQuotaFixture(models.UsageLimit{
		UserID:           "u1",
		MaxSwipesPerDay:  maxPerDay,
		LastSwipeResetAt: time.Now(),
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tracker.Commit(context.Background(), "u1", ResourceSwipe); err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxPerDay, committed)
	assert.Equal(t, maxPerDay, limits.swipesToday("u1"))
}

func TestCommit_RetriesTransientFailureOnce(t *testing.T) {
	tracker, limits := newQuotaFixture(models.UsageLimit{
		UserID:           "u1",
		MaxSwipesPerDay:  5,
		LastSwipeResetAt: time.Now(),
	})
	limits.failNextIncrements = 1

	err := tracker.Commit(context.Background(), "u1", ResourceSwipe)
	require.NoError(t, err)
	assert.Equal(t, 1, limits.swipesToday("u1"))
	assert.Equal(t, 2, limits.incrementCalls)
}

func TestCommit_SurfacesPersistentFailure(t *testing.T) {
	tracker, limits := newQuotaFixture(models.UsageLimit{
		UserID:           "u1",
		MaxSwipesPerDay:  5,
		LastSwipeResetAt: time.Now(),
	})
	limits.failNextIncrements = 2

	err := tracker.Commit(context.Background(), "u1", ResourceSwipe)
	require.Error(t, err)
	assert.Equal(t, 0, limits.swipesToday("u1"))
}

func TestUseBoost(t *testing.T) {
	tracker, _ := newQuotaFixture(models.UsageLimit{UserID: "u1", CanBoost: true, BoostsRemaining: 2, LastSwipeResetAt: time.Now()})

	remaining, err := tracker.UseBoost(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	remaining, err = tracker.UseBoost(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = tracker.UseBoost(context.Background(), "u1")
	var qErr *QuotaError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, ResourceBoost, qErr.Resource)
}
