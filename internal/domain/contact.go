package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContactSource string

const (
	ContactSourceTelegram ContactSource = "telegram"
	ContactSourcePhone    ContactSource = "phone"
)

// Contact is one address-book entry owned by a user. TelegramID, when set, is
// unique per owner; phone and email sets are not.
type Contact struct {
	ID         uuid.UUID                   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID                   `json:"userId" gorm:"type:uuid;not null;index;uniqueIndex:idx_contacts_user_telegram,priority:1"`
	TelegramID *int64                      `json:"telegramId,omitempty" gorm:"uniqueIndex:idx_contacts_user_telegram,priority:2"`
	Name       string                      `json:"name" gorm:"not null"`
	PhotoURL   string                      `json:"photoUrl,omitempty"`
	Birthday   *time.Time                  `json:"birthday,omitempty" gorm:"type:date"`
	Phones     datatypes.JSONSlice[string] `json:"phones" gorm:"type:jsonb;not null;default:'[]'"`
	Emails     datatypes.JSONSlice[string] `json:"emails" gorm:"type:jsonb;not null;default:'[]'"`
	Address    string                      `json:"address,omitempty"`
	Source     ContactSource               `json:"source" gorm:"not null;default:'phone'"`
	CreatedAt  time.Time                   `json:"createdAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

// ContactSnapshot is a client-submitted address-book record awaiting
// reconciliation. Every field is a list, as delivered by device pickers.
type ContactSnapshot struct {
	Names     []string
	Phones    []string
	Emails    []string
	Addresses []string
	Birthday  *time.Time
}

// FirstName returns the display name carried by the snapshot, or "".
func (s ContactSnapshot) FirstName() string {
	return first(s.Names)
}

func (s ContactSnapshot) FirstAddress() string {
	return first(s.Addresses)
}

// HasMatchKeys reports whether the snapshot can be matched against stored
// contacts at all.
func (s ContactSnapshot) HasMatchKeys() bool {
	return len(s.Phones) > 0 || len(s.Emails) > 0
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
