package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/api"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/config"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository/postgres"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/repository/redis"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/service"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/telegram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

const sessionCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	gormLevel := logger.Warn
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gormLevel = logger.Error
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.Database.URL, gormLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer rdb.Close()

	// Initialize repositories
	repos := postgres.NewRepositories(db)
	repos.Revocations = redis.NewRevocationRepository(rdb)

	platform := telegram.NewContactSource(cfg.Telegram.ContactsURL)
	if cfg.Telegram.ContactsURL == "" {
		log.Warn().Msg("TELEGRAM_CONTACTS_URL not set, Telegram contact import disabled")
	}

	// Initialize services
	services := service.NewServices(repos, platform, cfg)

	router := api.NewRouter(services, cfg)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, services.Auth)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// cleanupSessions drops expired refresh sessions until ctx is done.
func cleanupSessions(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.CleanupExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clean up expired sessions")
			}
		}
	}
}
