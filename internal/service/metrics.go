package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authAttemptsTotal counts Telegram logins and token refreshes by result.
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"kind", "result"},
	)

	// contactSyncTotal counts processed snapshots by outcome (created, updated, failed).
	contactSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniapp_contact_sync_total",
			Help: "Total number of contact snapshots reconciled",
		},
		[]string{"outcome"},
	)

	birthdayRemindersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "miniapp_birthday_reminders_created_total",
			Help: "Total number of reminders derived from contact birthdays",
		},
	)
)
