package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	SessionTimeout time.Duration
	SweepInterval  time.Duration
	Navigator      Navigator
	Notifier       Notifier
}

// Manager owns the client session lifecycle: login, token refresh, logout,
// inactivity expiry and the background sweep that enforces it.
type Manager struct {
	store     *SessionStore
	api       *APIClient
	sweeper   *Sweeper
	navigator Navigator

	mu      sync.Mutex
	baseCtx context.Context
}

type authResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func NewManager(storage Storage, opts Options) *Manager {
	store := NewSessionStore(storage, opts.SessionTimeout)
	api := NewAPIClient(opts.BaseURL, opts.HTTPClient, store, opts.RequestTimeout)
	api.SetNotifier(opts.Notifier)

	interval := opts.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	m := &Manager{
		store:     store,
		api:       api,
		navigator: opts.Navigator,
		baseCtx:   context.Background(),
	}
	m.sweeper = NewSweeper(interval, m.sweep)
	api.auth = m
	return m
}

// Start restores persisted state and resumes the sweep when a user was
// logged in. The sweep lives until ctx is done or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()

	if err := m.store.Init(); err != nil {
		return err
	}
	if user := m.store.User(); user != nil {
		log.Debug().Int64("telegram_id", user.TelegramID).Msg("Restored session")
		m.startSweep()
	}
	return nil
}

// Close stops the sweep and releases storage. Cached state is kept.
func (m *Manager) Close() error {
	m.sweeper.Stop()
	m.sweeper.Wait()
	return m.store.Close()
}

func (m *Manager) Store() *SessionStore {
	return m.store
}

func (m *Manager) API() *APIClient {
	return m.api
}

func (m *Manager) startSweep() {
	m.mu.Lock()
	ctx := m.baseCtx
	m.mu.Unlock()
	m.sweeper.Start(ctx)
}

// Authenticate exchanges Telegram WebApp init data for a session. Any
// failure leaves the client logged out.
func (m *Manager) Authenticate(ctx context.Context, initData string) (*domain.User, error) {
	var resp authResponse
	body := map[string]string{"initData": initData}
	err := m.api.Do(ctx, http.MethodPost, "/users/auth/telegram", body, &resp, asAuthCall(), withoutBearer())
	if err == nil && (resp.User == nil || resp.Token == "") {
		err = errors.New("incomplete auth response")
	}
	if err != nil {
		log.Warn().Err(err).Msg("Telegram authentication failed")
		_ = m.store.Clear()
		return nil, err
	}

	if err := m.store.SetAuth(resp.User, resp.Token); err != nil {
		return nil, err
	}
	if err := m.store.SetPreferences(resp.User.Preferences.Data()); err != nil {
		return nil, err
	}
	m.startSweep()

	log.Info().Int64("telegram_id", resp.User.TelegramID).Msg("Authenticated")
	return resp.User, nil
}

// RefreshToken rotates the bearer token. A 401 or 403 from the server
// clears cached state.
func (m *Manager) RefreshToken(ctx context.Context) error {
	if m.store.Token() == "" {
		return ErrNotAuthenticated
	}

	var resp authResponse
	err := m.api.Do(ctx, http.MethodPost, "/users/refresh-token", nil, &resp, asAuthCall(), Silent())
	if err != nil {
		switch StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			_ = m.store.Clear()
		}
		return err
	}
	if resp.Token == "" {
		return errors.New("incomplete refresh response")
	}

	if err := m.store.SetToken(resp.Token); err != nil {
		return err
	}
	if resp.User != nil {
		return m.store.SetUser(resp.User)
	}
	return nil
}

// Logout tells the server to drop the session and then clears local state
// regardless of the outcome.
func (m *Manager) Logout(ctx context.Context) {
	if m.store.Token() != "" {
		err := m.api.Do(ctx, http.MethodPost, "/users/logout", nil, nil, asAuthCall(), Silent(), WithTimeout(LogoutTimeout))
		if err != nil {
			log.Debug().Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}
	m.sweeper.Stop()
	_ = m.store.Clear()
}

// CheckSession reports whether a user is logged in with a live session.
func (m *Manager) CheckSession() bool {
	return m.store.Check()
}

func (m *Manager) IsExpired() bool {
	return m.store.IsExpired()
}

// TouchActivity extends the inactivity window. No network traffic.
func (m *Manager) TouchActivity() {
	if err := m.store.Touch(); err != nil {
		log.Warn().Err(err).Msg("Failed to persist session activity")
	}
}

// BindActivity touches the session for every event until ctx is done or
// events is closed.
func (m *Manager) BindActivity(ctx context.Context, events <-chan ActivityEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			m.TouchActivity()
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	if m.store.User() == nil || !m.store.IsExpired() {
		return
	}

	log.Info().Msg("Session expired due to inactivity")
	m.Logout(ctx)

	if m.navigator != nil && !m.navigator.OnLoginView() {
		m.navigator.ShowBlockingNotice(SessionExpiredNotice)
		m.navigator.ToLogin()
	}
}

func (m *Manager) authLost(ctx context.Context) {
	m.Logout(ctx)
	if m.navigator != nil {
		m.navigator.ToLogin()
	}
}

func (m *Manager) forbidden() {
	m.sweeper.Stop()
	_ = m.store.Clear()
}
