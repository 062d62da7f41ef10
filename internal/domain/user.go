package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID           uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TelegramID   int64                           `json:"telegramId" gorm:"uniqueIndex;not null"`
	FirstName    string                          `json:"firstName" gorm:"not null"`
	LastName     string                          `json:"lastName"`
	Username     string                          `json:"username"`
	LanguageCode string                          `json:"languageCode"`
	PhotoURL     string                          `json:"photoUrl"`
	Preferences  datatypes.JSONType[Preferences] `json:"preferences"`
	CreatedAt    time.Time                       `json:"createdAt"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}

// Preferences are the per-user settings mirrored by the mini-app client.
type Preferences struct {
	Theme            string `json:"theme"`
	Language         string `json:"language"`
	NotificationTime string `json:"notificationTime"` // HH:MM, user local time
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:            "light",
		Language:         "ru",
		NotificationTime: "09:00",
	}
}

// UserSession anchors a bearer token for refresh and logout. TokenHash is a
// bcrypt hash of the jti currently issued for the session.
type UserSession struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash string    `json:"-" gorm:"not null"`
	Device    string    `json:"device"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *UserSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
