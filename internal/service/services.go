package service

import (
	"github.com/awhatson15/reminder-mini-app-sub001/internal/config"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/telegram"
)

type Services struct {
	Auth     *AuthService
	Contact  *ContactService
	Reminder *ReminderService
}

func NewServices(repos *repository.Repositories, platform telegram.ContactSource, cfg *config.Config) *Services {
	return &Services{
		Auth:     NewAuthService(repos.User, repos.Session, repos.Revocations, cfg),
		Contact:  NewContactService(repos.Contact, repos.Reminder, platform),
		Reminder: NewReminderService(repos.Reminder),
	}
}
