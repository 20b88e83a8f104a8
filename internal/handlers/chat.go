package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pawmatch-backend/internal/middleware"
	"pawmatch-backend/internal/models"
	"pawmatch-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chats  *services.ChatService
	swipes *services.SwipeService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chats *services.ChatService, swipes *services.SwipeService) *ChatHandler {
	return &ChatHandler{chats: chats, swipes: swipes}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage handles POST /api/v1/matches/{match_id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}

	msg, err := h.chats.Send(ctx, userID, matchID, req.Content)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("match_id", matchID).
			Msg("Failed to send message")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// GetHistory handles GET /api/v1/matches/{match_id}/messages
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, total, err := h.chats.History(ctx, userID, matchID, limit, offset)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("match_id", matchID).
			Msg("Failed to get chat history")
		respondServiceError(w, err)
		return
	}

	if messages == nil {
		messages = []*models.Message{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    total,
	})
}

// ListMatches handles GET /api/v1/matches
func (h *ChatHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	matches, err := h.swipes.ListMatches(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list matches")
		respondServiceError(w, err)
		return
	}

	if matches == nil {
		matches = []*models.Match{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}
