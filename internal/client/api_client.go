package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Per-call timeouts.
const (
	DefaultRequestTimeout = 10 * time.Second
	BulkRequestTimeout    = 15 * time.Second
	LogoutTimeout         = 5 * time.Second
)

// authHooks lets the client recover from authorization failures without
// owning the session lifecycle.
type authHooks interface {
	RefreshToken(ctx context.Context) error
	// authLost ends the session after a failed refresh-and-retry.
	authLost(ctx context.Context)
	// forbidden drops cached state after a 403.
	forbidden()
}

// callState is owned by a single call and carries its retry flag across the
// replay.
type callState struct {
	timeout  time.Duration
	silent   bool
	retried  bool
	noBearer bool
	// authCall marks the auth endpoints themselves; their 401/403 are
	// handled by the caller.
	authCall bool
}

type RequestOption func(*callState)

// WithTimeout overrides the call's wall-clock limit.
func WithTimeout(d time.Duration) RequestOption {
	return func(s *callState) {
		s.timeout = d
	}
}

// Silent suppresses the Notifier for this call.
func Silent() RequestOption {
	return func(s *callState) {
		s.silent = true
	}
}

func asAuthCall() RequestOption {
	return func(s *callState) {
		s.authCall = true
	}
}

func withoutBearer() RequestOption {
	return func(s *callState) {
		s.noBearer = true
	}
}

// APIClient calls the mini-app backend with the session's bearer token.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	store      *SessionStore
	timeout    time.Duration
	notifier   Notifier
	auth       authHooks
}

func NewAPIClient(baseURL string, httpClient *http.Client, store *SessionStore, timeout time.Duration) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		store:      store,
		timeout:    timeout,
	}
}

func (c *APIClient) SetNotifier(n Notifier) {
	c.notifier = n
}

// Do sends a JSON request and decodes the JSON response into out (when
// non-nil). A 401 triggers one token refresh and one replay; a second 401
// or a failed refresh ends the session.
func (c *APIClient) Do(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	state := &callState{timeout: c.timeout}
	for _, opt := range opts {
		opt(state)
	}

	err := c.send(ctx, method, path, body, out, state)
	if err != nil {
		var apiErr *APIError
		if !state.silent && c.notifier != nil && errors.As(err, &apiErr) {
			c.notifier.Notify(apiErr)
		}
	}
	return err
}

func (c *APIClient) send(ctx context.Context, method, path string, body, out interface{}, state *callState) error {
	err := c.roundTrip(ctx, method, path, body, out, state)
	if err == nil {
		if !state.authCall {
			if terr := c.store.Touch(); terr != nil {
				log.Warn().Err(terr).Msg("Failed to persist session activity")
			}
		}
		return nil
	}

	if state.authCall || c.auth == nil {
		return err
	}

	switch StatusOf(err) {
	case http.StatusUnauthorized:
		if state.retried {
			log.Info().Str("path", path).Msg("Unauthorized after token refresh, ending session")
			c.auth.authLost(ctx)
			return err
		}
		state.retried = true
		if rerr := c.auth.RefreshToken(ctx); rerr != nil {
			log.Info().Err(rerr).Str("path", path).Msg("Token refresh failed, ending session")
			c.auth.authLost(ctx)
			return err
		}
		return c.send(ctx, method, path, body, out, state)
	case http.StatusForbidden:
		c.auth.forbidden()
	}
	return err
}

func (c *APIClient) roundTrip(ctx context.Context, method, path string, body, out interface{}, state *callState) error {
	ctx, cancel := context.WithTimeout(ctx, state.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !state.noBearer {
		if token := c.store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return newAbortedError(err)
		}
		return newNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return newStatusError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return newAbortedError(err)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
