package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pawmatch-backend/internal/models"
	"pawmatch-backend/internal/repository"

	"time"
)

// In-memory stores mirroring the conditional-update semantics of the
// postgres repositories, so service-level invariants can be exercised under
// real goroutine concurrency.

type fakeLimitStore struct {
	mu     sync.Mutex
	limits map[string]*models.UsageLimit

	failNextIncrements int
	incrementCalls     int
	resetsApplied      int
}

func newFakeLimitStore() *fakeLimitStore {
	return &fakeLimitStore{limits: make(map[string]*models.UsageLimit)}
}

func (s *fakeLimitStore) put(limit models.UsageLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := limit
	s.limits[limit.UserID] = &cp
}

func (s *fakeLimitStore) Create(ctx context.Context, limit *models.UsageLimit) error {
	s.put(*limit)
	return nil
}

func (s *fakeLimitStore) Get(ctx context.Context, userID string) (*models.UsageLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit, ok := s.limits[userID]
	if !ok {
		return nil, fmt.Errorf("usage limit not found: %w", repository.ErrNotFound)
	}
	cp := *limit
	return &cp, nil
}

func (s *fakeLimitStore) ResetDailyIfDue(ctx context.Context, userID string, cutoff, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit, ok := s.limits[userID]
	if !ok {
		return nil
	}
	if !limit.LastSwipeResetAt.After(cutoff) {
		limit.SwipesToday = 0
		limit.LastSwipeResetAt = now
		s.resetsApplied++
	}
	return nil
}

func (s *fakeLimitStore) IncrementSwipes(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incrementCalls++
	if s.failNextIncrements > 0 {
		s.failNextIncrements--
		return false, fmt.Errorf("storage timeout")
	}
	limit, ok := s.limits[userID]
	if !ok {
		return false, nil
	}
	if limit.MaxSwipesPerDay == -1 || limit.SwipesToday < limit.MaxSwipesPerDay {
		limit.SwipesToday++
		return true, nil
	}
	return false, nil
}

func (s *fakeLimitStore) ConsumeBoost(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit, ok := s.limits[userID]
	if !ok {
		return false, nil
	}
	if limit.CanBoost && limit.BoostsRemaining > 0 {
		limit.BoostsRemaining--
		return true, nil
	}
	return false, nil
}

func (s *fakeLimitStore) swipesToday(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits[userID].SwipesToday
}

type fakePetStore struct {
	mu   sync.Mutex
	pets map[string]*models.Pet
}

func newFakePetStore(pets ...*models.Pet) *fakePetStore {
	s := &fakePetStore{pets: make(map[string]*models.Pet)}
	for _, p := range pets {
		s.pets[p.ID] = p
	}
	return s
}

func (s *fakePetStore) Create(ctx context.Context, pet *models.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pets[pet.ID] = pet
	return nil
}

func (s *fakePetStore) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pet, ok := s.pets[id]
	if !ok {
		return nil, fmt.Errorf("pet not found: %w", repository.ErrNotFound)
	}
	return pet, nil
}

func (s *fakePetStore) GetByOwner(ctx context.Context, ownerID string) ([]*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Pet
	for _, pet := range s.pets {
		if pet.OwnerID == ownerID {
			out = append(out, pet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakePetStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	pets, _ := s.GetByOwner(ctx, ownerID)
	return len(pets), nil
}

func (s *fakePetStore) ListAvailable(ctx context.Context, userID, species string, limit, offset int) ([]*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Pet
	for _, pet := range s.pets {
		if pet.OwnerID == userID {
			continue
		}
		if species != "" && pet.Species != species {
			continue
		}
		out = append(out, pet)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeLikeStore struct {
	mu    sync.Mutex
	likes map[[2]string]*models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[[2]string]*models.Like)}
}

func (s *fakeLikeStore) Create(ctx context.Context, like *models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{like.FromPetID, like.ToPetID}
	if _, exists := s.likes[key]; exists {
		return fmt.Errorf("like already exists: %w", repository.ErrDuplicate)
	}
	s.likes[key] = like
	return nil
}

func (s *fakeLikeStore) Exists(ctx context.Context, fromPetID, toPetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.likes[[2]string{fromPetID, toPetID}]
	return exists, nil
}

func (s *fakeLikeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes)
}

type fakeMatchStore struct {
	mu      sync.Mutex
	byPair  map[[2]string]*models.Match
	failing int
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{byPair: make(map[[2]string]*models.Match)}
}

func (s *fakeMatchStore) CreateIfAbsent(ctx context.Context, match *models.Match) (*models.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing > 0 {
		s.failing--
		return nil, false, fmt.Errorf("storage timeout")
	}
	key := [2]string{match.PetAID, match.PetBID}
	if existing, exists := s.byPair[key]; exists {
		return existing, false, nil
	}
	s.byPair[key] = match
	return match, true, nil
}

func (s *fakeMatchStore) GetByID(ctx context.Context, id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, match := range s.byPair {
		if match.ID == id {
			return match, nil
		}
	}
	return nil, fmt.Errorf("match not found: %w", repository.ErrNotFound)
}

func (s *fakeMatchStore) ListByUser(ctx context.Context, userID string) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Match
	for _, match := range s.byPair {
		if match.HasUser(userID) {
			out = append(out, match)
		}
	}
	return out, nil
}

func (s *fakeMatchStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPair)
}

type fakeChatStore struct {
	mu       sync.Mutex
	byMatch  map[string]*models.Chat
	messages map[string][]*models.Message
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		byMatch:  make(map[string]*models.Chat),
		messages: make(map[string][]*models.Message),
	}
}

func (s *fakeChatStore) GetOrCreateByMatch(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, exists := s.byMatch[chat.MatchID]; exists {
		return existing, nil
	}
	s.byMatch[chat.MatchID] = chat
	return chat, nil
}

func (s *fakeChatStore) GetByMatch(ctx context.Context, matchID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, exists := s.byMatch[matchID]
	if !exists {
		return nil, fmt.Errorf("chat not found: %w", repository.ErrNotFound)
	}
	return chat, nil
}

func (s *fakeChatStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	return nil
}

func (s *fakeChatStore) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]*models.Message, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[chatID]
	total := len(msgs)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return msgs[offset:end], total, nil
}
