package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"pawmatch-backend/internal/models"
	"pawmatch-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	maxMessageRunes   = 2000
	defaultPageSize   = 50
	maxHistoryPageLen = 200
)

type chatStore interface {
	GetOrCreateByMatch(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	GetByMatch(ctx context.Context, matchID string) (*models.Chat, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID string, limit, offset int) ([]*models.Message, int, error)
}

type broadcaster interface {
	Broadcast(matchID string, ev Event)
}

// ChatService owns chat persistence and hands persisted messages to the
// broker for realtime fan-out. Persistence always happens first: a fan-out
// failure never rolls a message back, and recipients never see a message
// before it is durable.
type ChatService struct {
	matches matchStore
	chats   chatStore
	hub     broadcaster
	now     func() time.Time

	// roomLocks serializes persist+broadcast per match so realtime delivery
	// order matches persistence order within a room.
	roomLocks sync.Map
}

// NewChatService creates a new chat service
func NewChatService(matches matchStore, chats chatStore, hub broadcaster) *ChatService {
	return &ChatService{
		matches: matches,
		chats:   chats,
		hub:     hub,
		now:     time.Now,
	}
}

func (s *ChatService) roomLock(matchID string) *sync.Mutex {
	mu, _ := s.roomLocks.LoadOrStore(matchID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Send persists a message in the match's chat and fans it out to the room
func (s *ChatService) Send(ctx context.Context, userID, matchID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxMessageRunes {
		return nil, ErrMessageTooLong
	}

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

	mu := s.roomLock(matchID)
	mu.Lock()
	defer mu.Unlock()

	chat, err := s.chats.GetOrCreateByMatch(ctx, &models.Chat{
		ID:        uuid.New().String(),
		MatchID:   matchID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		ChatID:    chat.ID,
		SenderID:  userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.hub.Broadcast(matchID, NewMessageEvent(matchID, msg))

	return msg, nil
}

// History returns a match's messages oldest-first. Connections that missed
// realtime delivery recover here; persistence is the durability guarantee.
func (s *ChatService) History(ctx context.Context, userID, matchID string, limit, offset int) ([]*models.Message, int, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
		}
		return nil, 0, err
	}
	if !match.HasUser(userID) {
		return nil, 0, ErrForbidden
	}

	chat, err := s.chats.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No message has been sent yet; the chat does not exist.
			return []*models.Message{}, 0, nil
		}
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxHistoryPageLen {
		limit = maxHistoryPageLen
	}
	if offset < 0 {
		offset = 0
	}

	return s.chats.ListMessages(ctx, chat.ID, limit, offset)
}
