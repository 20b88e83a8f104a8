package repository

import (
	"context"
	"errors"
	"fmt"

	"pawmatch-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles database operations for chats and their messages
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetOrCreateByMatch returns the chat for a match, creating it on first use.
// match_id is unique, so concurrent first messages converge on one chat row.
func (r *ChatRepository) GetOrCreateByMatch(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	query := `
		INSERT INTO chats (id, match_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, chat.ID, chat.MatchID, chat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	if result.RowsAffected() == 1 {
		return chat, nil
	}

	existing, err := r.GetByMatch(ctx, chat.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing chat: %w", err)
	}
	return existing, nil
}

// GetByMatch retrieves the chat attached to a match
func (r *ChatRepository) GetByMatch(ctx context.Context, matchID string) (*models.Chat, error) {
	query := `
		SELECT id, match_id, created_at
		FROM chats
		WHERE match_id = $1
	`
	var chat models.Chat
	err := r.db.QueryRow(ctx, query, matchID).Scan(&chat.ID, &chat.MatchID, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

// CreateMessage appends a message to a chat
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessages retrieves messages for a chat, oldest first, with pagination
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]*models.Message, int, error) {
	countQuery := `SELECT COUNT(*) FROM messages WHERE chat_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, chatID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, chatID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, total, nil
}
