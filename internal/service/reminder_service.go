package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrInvalidReminder  = errors.New("invalid reminder")
)

type ReminderService struct {
	reminderRepo repository.ReminderRepository
}

func NewReminderService(reminderRepo repository.ReminderRepository) *ReminderService {
	return &ReminderService{reminderRepo: reminderRepo}
}

type ReminderInput struct {
	Title            string
	Description      string
	Type             domain.ReminderType
	Day              int
	Month            int
	Year             *int
	NotifyDaysBefore int
	IsRecurring      bool
	RecurrencePeriod domain.RecurrencePeriod
}

func (in ReminderInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.ErrReminderTitleRequired
	}
	if in.Type != "" && !in.Type.Valid() {
		return domain.ErrInvalidReminderType
	}
	if in.RecurrencePeriod != "" && !in.RecurrencePeriod.Valid() {
		return domain.ErrInvalidRecurrence
	}
	if in.Month < 1 || in.Month > 12 {
		return domain.ErrInvalidMonth
	}
	year := 2000 // leap year, so 29 February is accepted without a year
	if in.Year != nil {
		year = *in.Year
	}
	maxDay := time.Date(year, time.Month(in.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if in.Day < 1 || in.Day > maxDay {
		return domain.ErrInvalidDay
	}
	if in.NotifyDaysBefore < 0 {
		return domain.ErrInvalidNotifyDays
	}
	if !in.IsRecurring && in.RecurrencePeriod != "" && in.RecurrencePeriod != domain.RecurrenceNone {
		return domain.ErrRecurrenceNotRepeated
	}
	return nil
}

func (in ReminderInput) apply(reminder *domain.Reminder) {
	reminder.Title = in.Title
	reminder.Description = in.Description
	reminder.Type = in.Type
	if reminder.Type == "" {
		reminder.Type = domain.ReminderTypeOther
	}
	reminder.Day = in.Day
	reminder.Month = in.Month
	reminder.Year = in.Year
	reminder.NotifyDaysBefore = in.NotifyDaysBefore
	reminder.IsRecurring = in.IsRecurring
	reminder.RecurrencePeriod = in.RecurrencePeriod
	if reminder.RecurrencePeriod == "" {
		reminder.RecurrencePeriod = domain.RecurrenceNone
	}
}

func (s *ReminderService) Create(ctx context.Context, userID uuid.UUID, input ReminderInput) (*domain.Reminder, error) {
	if err := input.validate(); err != nil {
		return nil, errors.Join(ErrInvalidReminder, err)
	}
	reminder := &domain.Reminder{ID: uuid.New(), UserID: userID}
	input.apply(reminder)
	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Reminder, error) {
	return s.reminderRepo.ListByUser(ctx, userID)
}

func (s *ReminderService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Reminder, error) {
	reminder, err := s.reminderRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) Update(ctx context.Context, userID, id uuid.UUID, input ReminderInput) (*domain.Reminder, error) {
	if err := input.validate(); err != nil {
		return nil, errors.Join(ErrInvalidReminder, err)
	}
	reminder, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	input.apply(reminder)
	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.reminderRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderNotFound
		}
		return err
	}
	return nil
}
