package repository

import (
	"context"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	// UpsertByTelegramID creates the user or refreshes its profile fields,
	// keeping the stored ID and preferences.
	UpsertByTelegramID(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	UpdatePreferences(ctx context.Context, id uuid.UUID, prefs domain.Preferences) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	Update(ctx context.Context, session *domain.UserSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	CreateMany(ctx context.Context, contacts []*domain.Contact) error
	Update(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Contact, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error)
	// FindByPhonesOrEmails returns one stored contact sharing any phone or
	// email with the given sets, or gorm.ErrRecordNotFound. Which one is
	// returned when several match is left to the database.
	FindByPhonesOrEmails(ctx context.Context, userID uuid.UUID, phones, emails []string) (*domain.Contact, error)
	// UpsertByTelegramID inserts or overwrites the contact keyed on
	// (user, telegram id) and loads the stored row back into contact.
	UpsertByTelegramID(ctx context.Context, contact *domain.Contact) error
	Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Contact, error)
}

type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Reminder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reminder, error)
	CountByUserAndType(ctx context.Context, userID uuid.UUID, reminderType domain.ReminderType) (int64, error)
	Update(ctx context.Context, reminder *domain.Reminder) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// TokenRevocationRepository tracks revoked token ids until they would have
// expired on their own.
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Repositories struct {
	User        UserRepository
	Session     SessionRepository
	Contact     ContactRepository
	Reminder    ReminderRepository
	Revocations TokenRevocationRepository
}
