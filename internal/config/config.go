// Package config loads service configuration from the environment.
// A .env file in the working directory, if present, seeds variables that
// are not already set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned when an environment variable cannot be parsed.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config holds all runtime settings.
type Config struct {
	Port string
	// DatabaseURL selects PostgreSQL; empty means in-memory storage.
	DatabaseURL string
	// RedisURL enables the read-through cache when DatabaseURL is set.
	RedisURL string
	CacheTTL time.Duration
	LogLevel slog.Level
	// DefaultWindow is the period odds are projected over when a request
	// names none. 168h gives weekly odds.
	DefaultWindow   time.Duration
	ShutdownTimeout time.Duration
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	var err error
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DefaultWindow, err = getEnvAsDuration("DEFAULT_WINDOW", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, cfg.Port)
	}
	return cfg, nil
}

// getEnv returns the variable's value, or fallback when unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive duration, got %q", ErrInvalidConfig, key, v)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: LOG_LEVEL=%q", ErrInvalidConfig, s)
}
