package testutil

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/telegram"
	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	telegramID int64
	firstName  string
	username   string
}

// NewUserBuilder creates a new UserBuilder with a random Telegram identity
func NewUserBuilder() *UserBuilder {
	id := rand.Int64N(1_000_000_000) + 1
	return &UserBuilder{
		telegramID: id,
		firstName:  "Test",
		username:   fmt.Sprintf("testuser_%d", id),
	}
}

func (b *UserBuilder) WithTelegramID(id int64) *UserBuilder {
	b.telegramID = id
	return b
}

func (b *UserBuilder) WithFirstName(name string) *UserBuilder {
	b.firstName = name
	return b
}

// WebAppUser returns the identity as it appears in WebApp init data
func (b *UserBuilder) WebAppUser() telegram.WebAppUser {
	return telegram.WebAppUser{
		User: tgbotapi.User{
			ID:           b.telegramID,
			FirstName:    b.firstName,
			UserName:     b.username,
			LanguageCode: "ru",
		},
	}
}

// InitData returns init data for the user signed with TestBotToken
func (b *UserBuilder) InitData(t *testing.T) string {
	t.Helper()

	raw, err := telegram.BuildInitData(b.WebAppUser(), time.Now(), TestBotToken)
	if err != nil {
		t.Fatalf("failed to build init data: %v", err)
	}
	return raw
}

// Build creates the user directly in the database
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:          uuid.New(),
		TelegramID:  b.telegramID,
		FirstName:   b.firstName,
		Username:    b.username,
		Preferences: datatypes.NewJSONType(domain.DefaultPreferences()),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// BuildAndAuthenticate signs in through the API and returns the user and bearer token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"initData": b.InitData(t)})

	resp, err := http.Post(ts.URL("/users/auth/telegram"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to authenticate user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &authResp.User, authResp.Token
}

// ContactBuilder creates stored contacts with a builder pattern
type ContactBuilder struct {
	user       *domain.User
	name       string
	phones     []string
	emails     []string
	telegramID *int64
	birthday   *time.Time
}

func NewContactBuilder() *ContactBuilder {
	return &ContactBuilder{
		name:   fmt.Sprintf("Contact %s", uuid.New().String()[:8]),
		phones: []string{},
		emails: []string{},
	}
}

func (b *ContactBuilder) WithUser(user *domain.User) *ContactBuilder {
	b.user = user
	return b
}

func (b *ContactBuilder) WithName(name string) *ContactBuilder {
	b.name = name
	return b
}

func (b *ContactBuilder) WithPhones(phones ...string) *ContactBuilder {
	b.phones = phones
	return b
}

func (b *ContactBuilder) WithEmails(emails ...string) *ContactBuilder {
	b.emails = emails
	return b
}

func (b *ContactBuilder) WithTelegramID(id int64) *ContactBuilder {
	b.telegramID = &id
	return b
}

func (b *ContactBuilder) WithBirthday(birthday time.Time) *ContactBuilder {
	b.birthday = &birthday
	return b
}

// Build creates the contact in the database
func (b *ContactBuilder) Build(t *testing.T, db *gorm.DB) *domain.Contact {
	t.Helper()

	if b.user == nil {
		b.user = NewUserBuilder().Build(t, db)
	}

	source := domain.ContactSourcePhone
	if b.telegramID != nil {
		source = domain.ContactSourceTelegram
	}

	contact := &domain.Contact{
		ID:         uuid.New(),
		UserID:     b.user.ID,
		TelegramID: b.telegramID,
		Name:       b.name,
		Birthday:   b.birthday,
		Phones:     datatypes.JSONSlice[string](b.phones),
		Emails:     datatypes.JSONSlice[string](b.emails),
		Source:     source,
	}

	if err := db.Create(contact).Error; err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	return contact
}

// FakeContactSource serves canned Telegram contact lists keyed by Telegram user id
type FakeContactSource struct {
	mu       sync.Mutex
	contacts map[int64][]tgbotapi.Contact
	err      error
	calls    int
}

func NewFakeContactSource() *FakeContactSource {
	return &FakeContactSource{contacts: make(map[int64][]tgbotapi.Contact)}
}

func (f *FakeContactSource) SetContacts(telegramID int64, contacts ...tgbotapi.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[telegramID] = contacts
}

func (f *FakeContactSource) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeContactSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeContactSource) FetchContacts(_ context.Context, telegramID int64) ([]tgbotapi.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts[telegramID], nil
}
