package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/config"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/telegram"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidInitData = errors.New("invalid telegram init data")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenRevoked    = errors.New("token has been revoked")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	// ErrTokenReuse means a token id other than the one last issued for the
	// session was presented. The session is destroyed.
	ErrTokenReuse = errors.New("token reuse detected")
)

// Claims are carried by every bearer token.
type Claims struct {
	SessionID  string `json:"sid"`
	TelegramID int64  `json:"tg"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *Claims) SessionUUID() (uuid.UUID, error) {
	return uuid.Parse(c.SessionID)
}

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	revocations repository.TokenRevocationRepository
	cfg         *config.Config
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	revocations repository.TokenRevocationRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		revocations: revocations,
		cfg:         cfg,
		now:         time.Now,
	}
}

type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthenticateTelegram verifies WebApp init data, creates or refreshes the
// user it names and opens a new session.
func (s *AuthService) AuthenticateTelegram(ctx context.Context, initData, userAgent string) (*AuthResult, error) {
	data, err := telegram.ParseInitData(initData, s.cfg.Telegram.BotToken, s.cfg.Telegram.AuthMaxAge, s.now())
	if err != nil {
		authAttemptsTotal.WithLabelValues("telegram", "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		TelegramID:   data.User.ID,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		Username:     data.User.UserName,
		LanguageCode: data.User.LanguageCode,
		PhotoURL:     data.User.PhotoURL,
		Preferences:  datatypes.NewJSONType(domain.DefaultPreferences()),
	}
	if err := s.userRepo.UpsertByTelegramID(ctx, user); err != nil {
		authAttemptsTotal.WithLabelValues("telegram", "error").Inc()
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	jti := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(jti), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.UserSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: string(hash),
		Device:    describeDevice(userAgent),
		ExpiresAt: now.Add(s.cfg.JWT.SessionExpiry),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, expiresAt, err := s.issueToken(user, session.ID, jti)
	if err != nil {
		return nil, err
	}

	authAttemptsTotal.WithLabelValues("telegram", "success").Inc()
	log.Info().
		Str("user_id", user.ID.String()).
		Int64("telegram_id", user.TelegramID).
		Str("device", session.Device).
		Msg("User authenticated")

	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) issueToken(user *domain.User, sessionID uuid.UUID, jti string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWT.AccessExpiry)
	claims := Claims{
		SessionID:  sessionID.String(),
		TelegramID: user.TelegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) parseToken(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, nil
}

// ValidateToken checks signature, expiry and the revocation list.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RefreshToken rotates the token id of the session named by tokenString.
// The token must carry a valid signature but may be past its expiry.
func (s *AuthService) RefreshToken(ctx context.Context, tokenString string) (*AuthResult, error) {
	result, err := s.refresh(ctx, tokenString)
	switch {
	case err == nil:
		authAttemptsTotal.WithLabelValues("refresh", "success").Inc()
	case errors.Is(err, ErrTokenReuse):
		authAttemptsTotal.WithLabelValues("refresh", "reuse").Inc()
	default:
		authAttemptsTotal.WithLabelValues("refresh", "rejected").Inc()
	}
	return result, err
}

func (s *AuthService) refresh(ctx context.Context, tokenString string) (*AuthResult, error) {
	claims, err := s.parseToken(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}

	sessionID, err := claims.SessionUUID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.IsExpired(s.now()) {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			log.Error().Err(err).Str("session_id", session.ID.String()).Msg("Failed to delete expired session")
		}
		return nil, ErrSessionExpired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(session.TokenHash), []byte(claims.ID)); err != nil {
		log.Warn().
			Str("session_id", session.ID.String()).
			Str("user_id", session.UserID.String()).
			Msg("Stale token presented for refresh, destroying session")
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			log.Error().Err(err).Str("session_id", session.ID.String()).Msg("Failed to delete session")
		}
		return nil, ErrTokenReuse
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	jti := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(jti), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	session.TokenHash = string(hash)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	s.revoke(ctx, claims)

	token, expiresAt, err := s.issueToken(user, session.ID, jti)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout destroys the session behind claims and revokes its token id.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	sessionID, err := claims.SessionUUID()
	if err != nil {
		return fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.revoke(ctx, claims)
	return nil
}

// revoke blocks the token id until it would expire anyway. Failures are
// logged only; the session row is already gone or rotated.
func (s *AuthService) revoke(ctx context.Context, claims *Claims) {
	if claims.ExpiresAt == nil {
		return
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		log.Error().Err(err).Str("jti", claims.ID).Msg("Failed to revoke token")
	}
}

// CleanupExpiredSessions removes sessions past their expiry.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now())
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetPreferences(ctx context.Context, userID uuid.UUID) (domain.Preferences, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	return user.Preferences.Data(), nil
}

func (s *AuthService) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs domain.Preferences) (domain.Preferences, error) {
	if err := s.userRepo.UpdatePreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Preferences{}, ErrUserNotFound
		}
		return domain.Preferences{}, err
	}
	return prefs, nil
}

func describeDevice(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	ua := useragent.Parse(userAgent)
	name := ua.Name
	if name == "" {
		name = "unknown client"
	}
	if ua.Version != "" {
		name += " " + ua.Version
	}
	if ua.OS != "" {
		name += " on " + ua.OS
	}
	return name
}
