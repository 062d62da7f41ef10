package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReminderType string

const (
	ReminderTypeBirthday    ReminderType = "birthday"
	ReminderTypeMeeting     ReminderType = "meeting"
	ReminderTypeHoliday     ReminderType = "holiday"
	ReminderTypeAnniversary ReminderType = "anniversary"
	ReminderTypeOther       ReminderType = "other"
)

type RecurrencePeriod string

const (
	RecurrenceNone    RecurrencePeriod = "none"
	RecurrenceWeekly  RecurrencePeriod = "weekly"
	RecurrenceMonthly RecurrencePeriod = "monthly"
	RecurrenceYearly  RecurrencePeriod = "yearly"
)

// BirthdayNotifyDays is the notify lead used for reminders derived from birthdays.
const BirthdayNotifyDays = 1

type Reminder struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID        `json:"userId" gorm:"type:uuid;not null;index"`
	Title            string           `json:"title" gorm:"not null"`
	Description      string           `json:"description"`
	Type             ReminderType     `json:"type" gorm:"not null;default:'other'"`
	Day              int              `json:"day" gorm:"not null"`
	Month            int              `json:"month" gorm:"not null"`
	Year             *int             `json:"year,omitempty"`
	NotifyDaysBefore int              `json:"notifyDaysBefore" gorm:"not null;default:0"`
	IsRecurring      bool             `json:"isRecurring" gorm:"not null;default:false"`
	RecurrencePeriod RecurrencePeriod `json:"recurrencePeriod" gorm:"not null;default:'none'"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NewBirthdayReminder derives the yearly reminder for a contact's birthday.
func NewBirthdayReminder(userID uuid.UUID, name string, birthday time.Time) *Reminder {
	year := birthday.Year()
	return &Reminder{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            fmt.Sprintf("День рождения: %s", name),
		Type:             ReminderTypeBirthday,
		Day:              birthday.Day(),
		Month:            int(birthday.Month()),
		Year:             &year,
		NotifyDaysBefore: BirthdayNotifyDays,
		IsRecurring:      true,
		RecurrencePeriod: RecurrenceYearly,
	}
}

func (t ReminderType) Valid() bool {
	switch t {
	case ReminderTypeBirthday, ReminderTypeMeeting, ReminderTypeHoliday, ReminderTypeAnniversary, ReminderTypeOther:
		return true
	}
	return false
}

func (p RecurrencePeriod) Valid() bool {
	switch p {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}
