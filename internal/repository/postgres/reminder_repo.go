package postgres

import (
	"context"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *reminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *reminderRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).First(&reminder, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("month ASC, day ASC, created_at ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *reminderRepository) CountByUserAndType(ctx context.Context, userID uuid.UUID, reminderType domain.ReminderType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("user_id = ? AND type = ?", userID, reminderType).
		Count(&count).Error
	return count, err
}

func (r *reminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

func (r *reminderRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Reminder{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
