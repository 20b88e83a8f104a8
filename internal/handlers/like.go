package handlers

import (
	"encoding/json"
	"net/http"

	"pawmatch-backend/internal/middleware"
	"pawmatch-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// LikeHandler handles swipe-related HTTP requests
type LikeHandler struct {
	swipes *services.SwipeService
	quota  *services.QuotaTracker
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(swipes *services.SwipeService, quota *services.QuotaTracker) *LikeHandler {
	return &LikeHandler{swipes: swipes, quota: quota}
}

// CreateLikeRequest represents the request body for recording a like
type CreateLikeRequest struct {
	ToPetID string `json:"to_pet_id"`
}

// CreateLike handles POST /api/v1/likes
func (h *LikeHandler) CreateLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreateLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}
	if req.ToPetID == "" {
		respondError(w, "to_pet_id is required", "bad_request", http.StatusBadRequest)
		return
	}

	result, err := h.swipes.RecordLike(ctx, userID, req.ToPetID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("to_pet_id", req.ToPetID).
			Msg("Failed to record like")
		respondServiceError(w, err)
		return
	}

	if result.IsMatch {
		log.Info().
			Str("user_id", userID).
			Str("to_pet_id", req.ToPetID).
			Str("match_id", result.Match.ID).
			Msg("Match created")
	}

	respondJSON(w, http.StatusOK, result)
}

// UseBoost handles POST /api/v1/boosts
func (h *LikeHandler) UseBoost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	remaining, err := h.quota.UseBoost(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to use boost")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"boosts_remaining": remaining,
	})
}
