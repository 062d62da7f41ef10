package domain

import "errors"

// Reminder validation errors
var (
	ErrReminderTitleRequired = errors.New("title is required")
	ErrInvalidReminderType   = errors.New("unknown reminder type")
	ErrInvalidRecurrence     = errors.New("unknown recurrence period")
	ErrInvalidMonth          = errors.New("month must be between 1 and 12")
	ErrInvalidDay            = errors.New("day is out of range for month")
	ErrInvalidNotifyDays     = errors.New("notify days must not be negative")
	ErrRecurrenceNotRepeated = errors.New("recurrence period requires a recurring reminder")
)

// Contact errors
var (
	ErrContactNameRequired = errors.New("contact name is required")
)
