package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/google/uuid"
)

// ContactSnapshot is one address-book record as returned by a device
// contact picker.
type ContactSnapshot struct {
	Name     []string     `json:"name"`
	Tel      []string     `json:"tel"`
	Email    []string     `json:"email"`
	Address  []string     `json:"address"`
	Birthday *domain.Date `json:"birthday,omitempty"`
}

type contactBatch struct {
	Contacts []ContactSnapshot `json:"contacts"`
}

type ReminderInput struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Type             string `json:"type,omitempty"`
	Day              int    `json:"day"`
	Month            int    `json:"month"`
	Year             *int   `json:"year,omitempty"`
	NotifyDaysBefore int    `json:"notifyDaysBefore"`
	IsRecurring      bool   `json:"isRecurring"`
	RecurrencePeriod string `json:"recurrencePeriod,omitempty"`
}

// Me reloads the current user and refreshes the cached copy.
func (m *Manager) Me(ctx context.Context, opts ...RequestOption) (*domain.User, error) {
	var user domain.User
	if err := m.api.Do(ctx, http.MethodGet, "/users/me", nil, &user, opts...); err != nil {
		return nil, err
	}
	if err := m.store.SetUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Manager) GetPreferences(ctx context.Context, opts ...RequestOption) (domain.Preferences, error) {
	var prefs domain.Preferences
	if err := m.api.Do(ctx, http.MethodGet, "/users/preferences", nil, &prefs, opts...); err != nil {
		return prefs, err
	}
	return prefs, m.store.SetPreferences(prefs)
}

func (m *Manager) UpdatePreferences(ctx context.Context, prefs domain.Preferences, opts ...RequestOption) (domain.Preferences, error) {
	var updated domain.Preferences
	if err := m.api.Do(ctx, http.MethodPut, "/users/preferences", prefs, &updated, opts...); err != nil {
		return updated, err
	}
	return updated, m.store.SetPreferences(updated)
}

// SyncContacts reconciles device contacts with the stored ones by phone or
// email.
func (m *Manager) SyncContacts(ctx context.Context, contacts []ContactSnapshot, opts ...RequestOption) ([]*domain.Contact, error) {
	var out []*domain.Contact
	err := m.api.Do(ctx, http.MethodPost, "/contacts/sync", contactBatch{Contacts: contacts}, &out, bulk(opts)...)
	return out, err
}

func (m *Manager) ImportContacts(ctx context.Context, contacts []ContactSnapshot, opts ...RequestOption) ([]*domain.Contact, error) {
	var out []*domain.Contact
	err := m.api.Do(ctx, http.MethodPost, "/contacts/import", contactBatch{Contacts: contacts}, &out, bulk(opts)...)
	return out, err
}

func (m *Manager) ImportBirthdays(ctx context.Context, contacts []ContactSnapshot, opts ...RequestOption) ([]*domain.Reminder, error) {
	var out []*domain.Reminder
	err := m.api.Do(ctx, http.MethodPost, "/contacts/import-birthdays", contactBatch{Contacts: contacts}, &out, bulk(opts)...)
	return out, err
}

// TelegramContacts imports the user's Telegram contacts server-side and
// returns the stored records.
func (m *Manager) TelegramContacts(ctx context.Context, opts ...RequestOption) ([]*domain.Contact, error) {
	var out []*domain.Contact
	err := m.api.Do(ctx, http.MethodGet, "/telegram-contacts", nil, &out, bulk(opts)...)
	return out, err
}

func (m *Manager) SearchContacts(ctx context.Context, query string, opts ...RequestOption) ([]*domain.Contact, error) {
	var out []*domain.Contact
	err := m.api.Do(ctx, http.MethodGet, "/contacts/search?q="+url.QueryEscape(query), nil, &out, opts...)
	return out, err
}

func (m *Manager) ListContacts(ctx context.Context, opts ...RequestOption) ([]*domain.Contact, error) {
	var out []*domain.Contact
	err := m.api.Do(ctx, http.MethodGet, "/contacts", nil, &out, opts...)
	return out, err
}

func (m *Manager) ListReminders(ctx context.Context, opts ...RequestOption) ([]*domain.Reminder, error) {
	var out []*domain.Reminder
	err := m.api.Do(ctx, http.MethodGet, "/reminders", nil, &out, opts...)
	return out, err
}

func (m *Manager) CreateReminder(ctx context.Context, input ReminderInput, opts ...RequestOption) (*domain.Reminder, error) {
	var out domain.Reminder
	if err := m.api.Do(ctx, http.MethodPost, "/reminders", input, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Manager) UpdateReminder(ctx context.Context, id uuid.UUID, input ReminderInput, opts ...RequestOption) (*domain.Reminder, error) {
	var out domain.Reminder
	if err := m.api.Do(ctx, http.MethodPut, "/reminders/"+id.String(), input, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Manager) DeleteReminder(ctx context.Context, id uuid.UUID, opts ...RequestOption) error {
	return m.api.Do(ctx, http.MethodDelete, "/reminders/"+id.String(), nil, nil, opts...)
}

// bulk puts the longer batch timeout ahead of caller options so an explicit
// WithTimeout still wins.
func bulk(opts []RequestOption) []RequestOption {
	return append([]RequestOption{WithTimeout(BulkRequestTimeout)}, opts...)
}
