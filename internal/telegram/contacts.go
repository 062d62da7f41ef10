package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrPlatformUnavailable is returned when the contacts gateway is not
// configured or the breaker is open.
var ErrPlatformUnavailable = errors.New("telegram contacts are unavailable")

// ContactSource lists the Telegram contacts of a user.
type ContactSource interface {
	FetchContacts(ctx context.Context, telegramID int64) ([]tgbotapi.Contact, error)
}

// NewContactSource returns a gateway-backed source, or one that always
// reports ErrPlatformUnavailable when baseURL is empty.
func NewContactSource(baseURL string) ContactSource {
	if baseURL == "" {
		return unavailableSource{}
	}
	return NewGatewayClient(baseURL, &http.Client{Timeout: 15 * time.Second})
}

type unavailableSource struct{}

func (unavailableSource) FetchContacts(context.Context, int64) ([]tgbotapi.Contact, error) {
	return nil, ErrPlatformUnavailable
}

// GatewayClient fetches contacts from the MTProto gateway that holds the
// user's Telegram session. Calls go through a circuit breaker.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]tgbotapi.Contact]
}

func NewGatewayClient(baseURL string, httpClient *http.Client) *GatewayClient {
	cb := gobreaker.NewCircuitBreaker[[]tgbotapi.Contact](gobreaker.Settings{
		Name:        "telegram-contacts",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cb:         cb,
	}
}

func (c *GatewayClient) FetchContacts(ctx context.Context, telegramID int64) ([]tgbotapi.Contact, error) {
	contacts, err := c.cb.Execute(func() ([]tgbotapi.Contact, error) {
		return c.fetch(ctx, telegramID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	return contacts, err
}

func (c *GatewayClient) fetch(ctx context.Context, telegramID int64) ([]tgbotapi.Contact, error) {
	url := c.baseURL + "/users/" + strconv.FormatInt(telegramID, 10) + "/contacts"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("contacts request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var contacts []tgbotapi.Contact
	if err := json.NewDecoder(resp.Body).Decode(&contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return contacts, nil
}
