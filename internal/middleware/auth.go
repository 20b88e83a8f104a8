package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pawmatch-backend/internal/services"
)

type contextKey string

const userIDKey contextKey = "user_id"

// tokenValidator verifies a bearer token and yields the authenticated user ID
type tokenValidator interface {
	ValidateJWT(token string) (string, error)
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(validator tokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := validator.ValidateJWT(parts[1])
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `","code":"unauthenticated"}`))
}

// ValidateWebSocketToken validates a JWT token presented on the realtime
// handshake. An empty or invalid token fails the handshake before any room
// can be joined.
func ValidateWebSocketToken(token string, validator tokenValidator) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token required: %w", services.ErrUnauthenticated)
	}
	return validator.ValidateJWT(token)
}
