package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrInitDataMalformed = errors.New("malformed init data")
	ErrInitDataSignature = errors.New("init data signature mismatch")
	ErrInitDataExpired   = errors.New("init data expired")
	ErrInitDataNoUser    = errors.New("init data carries no user")
)

// WebAppUser is the user object of WebApp init data. Bot API users lack the
// photo URL, so it is carried alongside.
type WebAppUser struct {
	tgbotapi.User
	PhotoURL string `json:"photo_url,omitempty"`
}

type InitData struct {
	User     WebAppUser
	QueryID  string
	AuthDate time.Time
}

// ParseInitData verifies the signature of a WebApp init data query string
// against botToken and decodes it. maxAge <= 0 disables the freshness check.
func ParseInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitDataMalformed, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInitDataMalformed)
	}
	expected := Sign(values, botToken)
	if !hmac.Equal([]byte(hash), []byte(expected)) {
		return nil, ErrInitDataSignature
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInitDataMalformed)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, ErrInitDataExpired
	}

	rawUser := values.Get("user")
	if rawUser == "" {
		return nil, ErrInitDataNoUser
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("%w: bad user: %v", ErrInitDataMalformed, err)
	}
	if user.ID == 0 {
		return nil, ErrInitDataNoUser
	}

	return &InitData{
		User:     user,
		QueryID:  values.Get("query_id"),
		AuthDate: authDate,
	}, nil
}

// Sign computes the WebApp hash over every field except "hash".
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildInitData produces a signed init data string for user. Used by tooling
// and tests that need to act as the Telegram client.
func BuildInitData(user WebAppUser, authDate time.Time, botToken string) (string, error) {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	values := url.Values{}
	values.Set("user", string(rawUser))
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAH"+strconv.FormatInt(user.ID, 36))
	values.Set("hash", Sign(values, botToken))
	return values.Encode(), nil
}
