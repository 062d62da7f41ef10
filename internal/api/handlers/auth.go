package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/api/middleware"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type TelegramAuthRequest struct {
	InitData string `json:"initData" validate:"required"`
}

type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type PreferencesRequest struct {
	Theme            string `json:"theme" validate:"required,oneof=light dark"`
	Language         string `json:"language" validate:"required,min=2,max=8"`
	NotificationTime string `json:"notificationTime" validate:"required,hhmm"`
}

func (h *AuthHandler) AuthenticateTelegram(w http.ResponseWriter, r *http.Request) {
	var req TelegramAuthRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.authService.AuthenticateTelegram(r.Context(), req.InitData, r.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrInvalidInitData) {
			log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Rejected Telegram init data")
			http.Error(w, "Invalid Telegram init data", http.StatusUnauthorized)
			return
		}
		internalError(w, r, err, "Telegram authentication failed")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		User:      result.User,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		internalError(w, r, err, "Failed to load user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	prefs, err := h.authService.GetPreferences(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		internalError(w, r, err, "Failed to load preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req PreferencesRequest
	if err := decodeRequest(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prefs, err := h.authService.UpdatePreferences(r.Context(), userID, domain.Preferences{
		Theme:            req.Theme,
		Language:         req.Language,
		NotificationTime: req.NotificationTime,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		internalError(w, r, err, "Failed to update preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// RefreshToken accepts an expired bearer token; the session decides.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	result, err := h.authService.RefreshToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenReuse):
			http.Error(w, "Token reuse detected", http.StatusForbidden)
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrSessionNotFound),
			errors.Is(err, service.ErrSessionExpired),
			errors.Is(err, service.ErrUserNotFound):
			http.Error(w, "Session is no longer valid", http.StatusUnauthorized)
		default:
			internalError(w, r, err, "Token refresh failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		User:      result.User,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), claims); err != nil {
		internalError(w, r, err, "Logout failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
