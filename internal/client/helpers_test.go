package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeNavigator struct {
	mu      sync.Mutex
	onLogin bool
	toLogin int
	notices []string
}

func (n *fakeNavigator) OnLoginView() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.onLogin
}

func (n *fakeNavigator) ToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toLogin++
	n.onLogin = true
}

func (n *fakeNavigator) ShowBlockingNotice(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, msg)
}

func (n *fakeNavigator) redirects() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toLogin
}

type recordingNotifier struct {
	mu   sync.Mutex
	errs []*APIError
}

func (n *recordingNotifier) Notify(err *APIError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

// testBackend fakes the mini-app API. Tokens are plain strings; /users/me
// and /contacts accept only the token named by validToken.
type testBackend struct {
	*httptest.Server
	router chi.Router

	user       *domain.User
	validToken atomic.Value
	rejectAll  atomic.Bool

	authCalls    atomic.Int32
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	meCalls      atomic.Int32

	authStatus    atomic.Int32
	refreshStatus atomic.Int32
	logoutStatus  atomic.Int32
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	prefs := domain.Preferences{Theme: "dark", Language: "en", NotificationTime: "08:30"}
	b := &testBackend{
		router: chi.NewRouter(),
		user: &domain.User{
			ID:          uuid.New(),
			TelegramID:  424242,
			FirstName:   "Анна",
			Preferences: datatypes.NewJSONType(prefs),
		},
	}
	b.validToken.Store("token-1")

	b.router.Post("/users/auth/telegram", func(w http.ResponseWriter, r *http.Request) {
		b.authCalls.Add(1)
		if status := int(b.authStatus.Load()); status != 0 {
			http.Error(w, "Invalid Telegram init data", status)
			return
		}
		writeJSON(w, authResponse{User: b.user, Token: "token-1", ExpiresAt: time.Now().Add(time.Hour)})
	})
	b.router.Post("/users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if status := int(b.refreshStatus.Load()); status != 0 {
			http.Error(w, "Session expired", status)
			return
		}
		b.validToken.Store("token-2")
		writeJSON(w, authResponse{User: b.user, Token: "token-2", ExpiresAt: time.Now().Add(time.Hour)})
	})
	b.router.Post("/users/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls.Add(1)
		if status := int(b.logoutStatus.Load()); status != 0 {
			http.Error(w, "Internal server error", status)
			return
		}
		writeJSON(w, map[string]bool{"success": true})
	})
	b.router.Get("/users/me", func(w http.ResponseWriter, r *http.Request) {
		b.meCalls.Add(1)
		if !b.authorized(r) {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		writeJSON(w, b.user)
	})

	b.Server = httptest.NewServer(b.router)
	t.Cleanup(b.Close)
	return b
}

func (b *testBackend) authorized(r *http.Request) bool {
	if b.rejectAll.Load() {
		return false
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token == b.validToken.Load().(string)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testManagerOptions struct {
	navigator *fakeNavigator
	notifier  *recordingNotifier
	clock     *fakeClock
	dir       string
}

func newTestManager(t *testing.T, baseURL string, opts testManagerOptions) *Manager {
	t.Helper()

	storage, err := OpenBadgerStorage(opts.dir)
	require.NoError(t, err)

	managerOpts := Options{
		BaseURL:       baseURL,
		SweepInterval: time.Hour,
	}
	if opts.navigator != nil {
		managerOpts.Navigator = opts.navigator
	}
	if opts.notifier != nil {
		managerOpts.Notifier = opts.notifier
	}

	m := NewManager(storage, managerOpts)
	if opts.clock != nil {
		m.store.now = opts.clock.Now
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}
