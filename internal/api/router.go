package api

import (
	"net/http"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/api/handlers"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/api/middleware"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/config"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logger())
	r.Use(middleware.Recoverer())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", middleware.MetricsHandler())

	authHandler := handlers.NewAuthHandler(services.Auth)
	contactHandler := handlers.NewContactHandler(services.Contact)
	reminderHandler := handlers.NewReminderHandler(services.Reminder)

	r.Route("/users", func(r chi.Router) {
		r.With(httprate.LimitByIP(cfg.RateLimit.AuthRequestsPerMinute, time.Minute)).
			Post("/auth/telegram", authHandler.AuthenticateTelegram)
		// Refresh takes an expired token, so it validates the session itself.
		r.Post("/refresh-token", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/me", authHandler.Me)
			r.Get("/preferences", authHandler.GetPreferences)
			r.Put("/preferences", authHandler.UpdatePreferences)
			r.Post("/logout", authHandler.Logout)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(services.Auth))

		r.Get("/telegram-contacts", contactHandler.TelegramContacts)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactHandler.List)
			r.Post("/", contactHandler.Create)
			r.Post("/sync", contactHandler.Sync)
			r.Get("/search", contactHandler.Search)
			r.Post("/import", contactHandler.Import)
			r.Post("/import-birthdays", contactHandler.ImportBirthdays)
			r.Get("/{id}", contactHandler.Get)
			r.Put("/{id}", contactHandler.Update)
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/", reminderHandler.List)
			r.Post("/", reminderHandler.Create)
			r.Get("/{id}", reminderHandler.Get)
			r.Put("/{id}", reminderHandler.Update)
			r.Delete("/{id}", reminderHandler.Delete)
		})
	})

	return r
}
