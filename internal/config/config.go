package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// AppID is the opaque provider credential clients must present on
	// every relay connect. Required at process start.
	AppID string

	// Room table backends. DatabaseURL (postgres) wins over SQLitePath;
	// with neither set the directory runs in memory.
	DatabaseURL string
	SQLitePath  string

	// RedisURL enables the shared token store for multi-instance runs.
	RedisURL string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// APP_ID is required in every environment; the process refuses to start
// without the provider credential.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		AppID:       os.Getenv("APP_ID"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	if cfg.AppID == "" {
		panic("APP_ID is required")
	}

	// In production, the room table must survive restarts and tokens
	// must be shared across instances.
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
			panic("DATABASE_URL or SQLITE_PATH is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
