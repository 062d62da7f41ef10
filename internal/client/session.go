package client

import (
	"sync"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultSessionTimeout is the inactivity window after which a session is
// considered expired.
const DefaultSessionTimeout = 30 * time.Minute

// Session is the client's bearer token and the time of the last user
// interaction or successful API call.
type Session struct {
	Token        string    `json:"token"`
	LastActivity time.Time `json:"lastActivity"`
}

// SessionStore holds the current user, session and preferences and mirrors
// every change to Storage. The mutex guards memory only: callers may
// interleave (a sweep can clear right after a touch).
type SessionStore struct {
	mu          sync.Mutex
	storage     Storage
	timeout     time.Duration
	now         func() time.Time
	user        *domain.User
	session     *Session
	preferences domain.Preferences
}

func NewSessionStore(storage Storage, timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionStore{
		storage:     storage,
		timeout:     timeout,
		now:         time.Now,
		preferences: domain.DefaultPreferences(),
	}
}

// Init restores the cache from storage.
func (s *SessionStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user domain.User
	found, err := s.storage.Get(KeyUser, &user)
	if err != nil {
		return err
	}
	if found {
		s.user = &user
	}

	var session Session
	found, err = s.storage.Get(KeySession, &session)
	if err != nil {
		return err
	}
	if found && session.Token != "" {
		s.session = &session
	}

	var prefs domain.Preferences
	found, err = s.storage.Get(KeyPreferences, &prefs)
	if err != nil {
		return err
	}
	if found {
		s.preferences = prefs
	}
	return nil
}

// SetAuth stores a freshly authenticated user and token.
func (s *SessionStore) SetAuth(user *domain.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.session = &Session{Token: token, LastActivity: s.now()}
	if err := s.storage.Set(KeyUser, user); err != nil {
		return err
	}
	return s.storage.Set(KeySession, s.session)
}

// SetToken replaces the session token and counts as activity.
func (s *SessionStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = &Session{Token: token, LastActivity: s.now()}
	return s.storage.Set(KeySession, s.session)
}

func (s *SessionStore) SetUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	return s.storage.Set(KeyUser, user)
}

func (s *SessionStore) SetPreferences(prefs domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preferences = prefs
	return s.storage.Set(KeyPreferences, prefs)
}

// Touch records activity now. Without a session it does nothing.
func (s *SessionStore) Touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	s.session.LastActivity = s.now()
	return s.storage.Set(KeySession, s.session)
}

// IsExpired reports true without a session or when the last activity is
// more than the timeout ago.
func (s *SessionStore) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiredLocked()
}

func (s *SessionStore) expiredLocked() bool {
	if s.session == nil {
		return true
	}
	return s.now().Sub(s.session.LastActivity) > s.timeout
}

// Check reports whether a user and a live session are both present.
func (s *SessionStore) Check() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && !s.expiredLocked()
}

func (s *SessionStore) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// Session returns a copy of the current session, or nil.
func (s *SessionStore) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

func (s *SessionStore) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences
}

// Clear drops all cached state, in memory and in storage. Safe to repeat.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.session = nil
	s.preferences = domain.DefaultPreferences()
	if err := s.storage.Delete(KeyUser, KeySession, KeyPreferences); err != nil {
		log.Error().Err(err).Msg("Failed to clear persisted session")
		return err
	}
	return nil
}

func (s *SessionStore) Close() error {
	return s.storage.Close()
}
