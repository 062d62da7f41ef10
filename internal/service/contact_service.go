package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SearchLimit caps the number of contacts returned by Search.
const SearchLimit = 10

var (
	ErrSyncFailed          = errors.New("contact sync failed")
	ErrContactNotFound     = errors.New("contact not found")
	ErrContactNameRequired = domain.ErrContactNameRequired
	ErrPlatformUnavailable = errors.New("telegram contacts are unavailable")
)

type ContactService struct {
	contactRepo  repository.ContactRepository
	reminderRepo repository.ReminderRepository
	platform     telegram.ContactSource
}

func NewContactService(
	contactRepo repository.ContactRepository,
	reminderRepo repository.ReminderRepository,
	platform telegram.ContactSource,
) *ContactService {
	return &ContactService{
		contactRepo:  contactRepo,
		reminderRepo: reminderRepo,
		platform:     platform,
	}
}

// Sync reconciles snapshots against the user's stored contacts, one lookup
// and one write per snapshot, in input order. A stored contact sharing any
// phone or email is overwritten; otherwise a new one is created. Nothing is
// rolled back when a later snapshot fails. A snapshot without a name fails
// the sync.
func (s *ContactService) Sync(ctx context.Context, userID uuid.UUID, snapshots []domain.ContactSnapshot) ([]*domain.Contact, error) {
	result := make([]*domain.Contact, 0, len(snapshots))
	for i, snapshot := range snapshots {
		contact, created, err := s.syncOne(ctx, userID, snapshot)
		if err != nil {
			contactSyncTotal.WithLabelValues("failed").Inc()
			log.Error().
				Err(err).
				Str("user_id", userID.String()).
				Int("index", i).
				Int("synced", len(result)).
				Msg("Contact sync aborted")
			return nil, fmt.Errorf("%w: %w", ErrSyncFailed, err)
		}
		if created {
			contactSyncTotal.WithLabelValues("created").Inc()
		} else {
			contactSyncTotal.WithLabelValues("updated").Inc()
		}
		result = append(result, contact)
	}
	return result, nil
}

func (s *ContactService) syncOne(ctx context.Context, userID uuid.UUID, snapshot domain.ContactSnapshot) (*domain.Contact, bool, error) {
	if strings.TrimSpace(snapshot.FirstName()) == "" {
		return nil, false, ErrContactNameRequired
	}
	phones := nonNil(snapshot.Phones)
	emails := nonNil(snapshot.Emails)

	var existing *domain.Contact
	if snapshot.HasMatchKeys() {
		found, err := s.contactRepo.FindByPhonesOrEmails(ctx, userID, phones, emails)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		existing = found
	}

	if existing != nil {
		existing.Name = snapshot.FirstName()
		existing.Phones = datatypes.JSONSlice[string](phones)
		existing.Emails = datatypes.JSONSlice[string](emails)
		existing.Address = snapshot.FirstAddress()
		existing.Source = domain.ContactSourcePhone
		if err := s.contactRepo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	contact := newPhoneContact(userID, snapshot)
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, false, err
	}
	return contact, true, nil
}

// ImportFromPlatform fetches the user's Telegram contacts and upserts each
// one keyed on its Telegram user id.
func (s *ContactService) ImportFromPlatform(ctx context.Context, userID uuid.UUID, telegramID int64) ([]*domain.Contact, error) {
	fetched, err := s.platform.FetchContacts(ctx, telegramID)
	if err != nil {
		if errors.Is(err, telegram.ErrPlatformUnavailable) {
			return nil, ErrPlatformUnavailable
		}
		return nil, fmt.Errorf("failed to fetch telegram contacts: %w", err)
	}

	result := make([]*domain.Contact, 0, len(fetched))
	for _, tc := range fetched {
		if tc.UserID == 0 {
			// Contacts without a Telegram account have nothing to key on.
			continue
		}
		contact := newTelegramContact(userID, tc)
		if contact.Name == "" {
			log.Warn().
				Str("user_id", userID.String()).
				Int64("telegram_id", tc.UserID).
				Msg("Skipping Telegram contact without a name")
			continue
		}
		if err := s.contactRepo.UpsertByTelegramID(ctx, contact); err != nil {
			return nil, fmt.Errorf("failed to store telegram contact %d: %w", tc.UserID, err)
		}
		result = append(result, contact)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("fetched", len(fetched)).
		Int("stored", len(result)).
		Msg("Telegram contacts imported")
	return result, nil
}

// ImportBirthdays creates one yearly reminder per snapshot carrying a
// birthday. Repeating the call repeats the reminders.
func (s *ContactService) ImportBirthdays(ctx context.Context, userID uuid.UUID, snapshots []domain.ContactSnapshot) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder
	for _, snapshot := range snapshots {
		if snapshot.Birthday == nil {
			continue
		}
		reminder := domain.NewBirthdayReminder(userID, snapshot.FirstName(), *snapshot.Birthday)
		if err := s.reminderRepo.Create(ctx, reminder); err != nil {
			return nil, fmt.Errorf("failed to create birthday reminder: %w", err)
		}
		birthdayRemindersTotal.Inc()
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

// Import stores every snapshot as a new contact without reconciliation.
// A snapshot without a name rejects the whole batch before anything is written.
func (s *ContactService) Import(ctx context.Context, userID uuid.UUID, snapshots []domain.ContactSnapshot) ([]*domain.Contact, error) {
	contacts := make([]*domain.Contact, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if strings.TrimSpace(snapshot.FirstName()) == "" {
			return nil, ErrContactNameRequired
		}
		contacts = append(contacts, newPhoneContact(userID, snapshot))
	}
	if err := s.contactRepo.CreateMany(ctx, contacts); err != nil {
		return nil, fmt.Errorf("failed to import contacts: %w", err)
	}
	return contacts, nil
}

// Search matches query case-insensitively against names, phones and emails.
func (s *ContactService) Search(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Contact{}, nil
	}
	return s.contactRepo.Search(ctx, userID, query, SearchLimit)
}

func (s *ContactService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error) {
	return s.contactRepo.ListByUser(ctx, userID)
}

func (s *ContactService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return contact, nil
}

// ContactInput carries the editable fields of a contact.
type ContactInput struct {
	Name     string
	PhotoURL string
	Birthday *domain.Date
	Phones   []string
	Emails   []string
	Address  string
}

func (s *ContactService) Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*domain.Contact, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrContactNameRequired
	}
	contact := &domain.Contact{
		ID:     uuid.New(),
		UserID: userID,
		Source: domain.ContactSourcePhone,
	}
	input.apply(contact)
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, userID, id uuid.UUID, input ContactInput) (*domain.Contact, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrContactNameRequired
	}
	contact, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	input.apply(contact)
	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (in ContactInput) apply(contact *domain.Contact) {
	contact.Name = in.Name
	contact.PhotoURL = in.PhotoURL
	contact.Birthday = in.Birthday.TimePtr()
	contact.Phones = datatypes.JSONSlice[string](nonNil(in.Phones))
	contact.Emails = datatypes.JSONSlice[string](nonNil(in.Emails))
	contact.Address = in.Address
}

func newPhoneContact(userID uuid.UUID, snapshot domain.ContactSnapshot) *domain.Contact {
	return &domain.Contact{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     snapshot.FirstName(),
		Birthday: snapshot.Birthday,
		Phones:   datatypes.JSONSlice[string](nonNil(snapshot.Phones)),
		Emails:   datatypes.JSONSlice[string](nonNil(snapshot.Emails)),
		Address:  snapshot.FirstAddress(),
		Source:   domain.ContactSourcePhone,
	}
}

func newTelegramContact(userID uuid.UUID, tc tgbotapi.Contact) *domain.Contact {
	telegramID := tc.UserID
	name := strings.TrimSpace(tc.FirstName + " " + tc.LastName)
	if name == "" {
		name = strings.TrimSpace(tc.PhoneNumber)
	}
	var phones []string
	if tc.PhoneNumber != "" {
		phones = []string{tc.PhoneNumber}
	}
	return &domain.Contact{
		ID:         uuid.New(),
		UserID:     userID,
		TelegramID: &telegramID,
		Name:       name,
		Phones:     datatypes.JSONSlice[string](nonNil(phones)),
		Emails:     datatypes.JSONSlice[string]{},
		Source:     domain.ContactSourceTelegram,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
