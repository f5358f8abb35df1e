package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Aryan42/wannameet/internal/api"
	"github.com/Aryan42/wannameet/internal/config"
	"github.com/Aryan42/wannameet/internal/directory"
	"github.com/Aryan42/wannameet/internal/relay"
	"github.com/Aryan42/wannameet/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Room table backend
	var rooms store.RoomStore
	switch {
	case cfg.DatabaseURL != "":
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		logger.Info().Msg("room table on PostgreSQL")
		rooms = pgStore
	case cfg.SQLitePath != "":
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteStore.Close()
		logger.Info().Str("path", cfg.SQLitePath).Msg("room table on SQLite")
		rooms = sqliteStore
	default:
		logger.Info().Msg("room table in memory")
		rooms = store.NewMemoryStore()
	}

	// Token backend
	var tokens store.TokenStore
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("token store on Redis")
		tokens = redisStore
	} else {
		logger.Info().Msg("token store in memory")
		tokens = store.NewMemoryStore()
	}

	dir := directory.New(rooms, tokens, logger)
	hub := relay.NewHub(cfg.AppID, dir, logger)

	// Create router
	router := api.NewRouter(logger, dir, hub, rooms, tokens)

	// Create server. No read/write timeouts: relay websockets are
	// long-lived and would be severed by them.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting wannameet server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
