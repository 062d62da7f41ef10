package postgres

import (
	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table owned by the service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserSession{},
		&domain.Contact{},
		&domain.Reminder{},
	)
}

// NewRepositories wires the postgres-backed repositories. Revocations live in
// Redis and are attached by the caller.
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:     NewUserRepository(db),
		Session:  NewSessionRepository(db),
		Contact:  NewContactRepository(db),
		Reminder: NewReminderRepository(db),
	}
}
