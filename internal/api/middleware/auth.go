package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

var (
	ErrMissingAuthHeader = errors.New("authorization header required")
	ErrBadAuthHeader     = errors.New("invalid authorization header")
)

const (
	UserIDKey contextKey = "userID"
	ClaimsKey contextKey = "claims"
)

// Auth rejects requests without a valid bearer token with 401, and requests
// carrying a revoked token with 403.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := authService.ValidateToken(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrTokenRevoked):
					http.Error(w, "Token has been revoked", http.StatusForbidden)
				case errors.Is(err, service.ErrInvalidToken):
					log.Debug().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
					http.Error(w, "Invalid token", http.StatusUnauthorized)
				default:
					log.Error().Err(err).Str("path", r.URL.Path).Msg("Token validation error")
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			// parseToken already checked the subject.
			userID, _ := claims.UserID()

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrBadAuthHeader
	}
	return parts[1], nil
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetClaims(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*service.Claims)
	return claims, ok
}
