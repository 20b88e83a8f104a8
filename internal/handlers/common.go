package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"pawmatch-backend/internal/services"
)

// ErrorResponse carries a human message plus a machine-distinguishable code,
// so clients can render "upgrade your plan" differently from "no access".
type ErrorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	Upgradeable bool   `json:"upgradeable,omitempty"`
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message, code string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// respondServiceError translates the service error taxonomy into HTTP
func respondServiceError(w http.ResponseWriter, err error) {
	var qErr *services.QuotaError
	if errors.As(err, &qErr) {
		respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:       qErr.Reason,
			Code:        "quota_exceeded",
			Upgradeable: qErr.Upgradeable,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		respondError(w, err.Error(), "unauthenticated", http.StatusUnauthorized)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, "you are not a participant of this resource", "forbidden", http.StatusForbidden)
	case errors.Is(err, services.ErrPetNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound):
		respondError(w, err.Error(), "not_found", http.StatusNotFound)
	case errors.Is(err, services.ErrAlreadyLiked):
		respondError(w, "already liked", "conflict", http.StatusConflict)
	case errors.Is(err, services.ErrSelfLike),
		errors.Is(err, services.ErrNoPetProfile),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong):
		respondError(w, err.Error(), "invalid_operation", http.StatusUnprocessableEntity)
	default:
		respondError(w, "internal error", "internal", http.StatusInternalServerError)
	}
}
