package postgres

import (
	"context"
	"strings"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const contactBatchSize = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *contactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepository) CreateMany(ctx context.Context, contacts []*domain.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(contacts, contactBatchSize).Error
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *contactRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).First(&contact, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) FindByPhonesOrEmails(ctx context.Context, userID uuid.UUID, phones, emails []string) (*domain.Contact, error) {
	var conds []string
	var args []interface{}
	if len(phones) > 0 {
		conds = append(conds, "jsonb_exists_any(phones, ?::text[])")
		args = append(args, pq.StringArray(phones))
	}
	if len(emails) > 0 {
		conds = append(conds, "jsonb_exists_any(emails, ?::text[])")
		args = append(args, pq.StringArray(emails))
	}
	if len(conds) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	// Take, not First: no ordering is imposed when several contacts overlap.
	var contact domain.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Take(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) UpsertByTelegramID(ctx context.Context, contact *domain.Contact) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "phones", "photo_url", "source", "updated_at",
		}),
	}).Create(contact).Error
	if err != nil {
		return err
	}

	var stored domain.Contact
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND telegram_id = ?", contact.UserID, contact.TelegramID).
		Take(&stored).Error
	if err != nil {
		return err
	}
	*contact = stored
	return nil
}

func (r *contactRepository) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Contact, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"

	var contacts []*domain.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(`(name ILIKE ?
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(phones) AS p(v) WHERE p.v ILIKE ?)
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(emails) AS e(v) WHERE e.v ILIKE ?))`,
			pattern, pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}
