// Package config loads and validates runtime configuration from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	// HTTP server
	Port string `validate:"required,numeric"`

	// Database
	SQLiteDBPath string `validate:"required"`

	// AMQP; empty URL disables messaging entirely
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// External rate source
	RateSourceURL       string `validate:"omitempty,url"`
	RateFetchTimeout    time.Duration
	RateRefreshInterval time.Duration

	// Service layer
	CacheTTL    time.Duration
	RecentLimit int `validate:"min=1,max=1000"`

	// Optional YAML category catalog override
	CategoriesFile string

	LogLevel string `validate:"oneof=debug info warn error"`
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8082"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/anzu.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "anzu"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "rate_refresh"),

		RateSourceURL:       getEnv("RATE_SOURCE_URL", ""),
		RateFetchTimeout:    getEnvDuration("RATE_FETCH_TIMEOUT", 10*time.Second),
		RateRefreshInterval: getEnvDuration("RATE_REFRESH_INTERVAL", 6*time.Hour),

		CacheTTL:    getEnvDuration("CACHE_TTL", 5*time.Minute),
		RecentLimit: getEnvInt("RECENT_LIMIT", 200),

		CategoriesFile: getEnv("CATEGORIES_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the whole configuration at startup so bad settings
// fail fast instead of surfacing mid-request.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q: must be between 1 and 65535", c.Port)
	}

	if c.AMQPURL != "" {
		parsed, err := url.Parse(c.AMQPURL)
		if err != nil {
			return fmt.Errorf("invalid AMQP URL %q: %w", c.AMQPURL, err)
		}
		if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			return fmt.Errorf("invalid AMQP URL scheme %q: must be amqp or amqps", parsed.Scheme)
		}
		if c.AMQPExchange == "" {
			return fmt.Errorf("AMQP exchange cannot be empty when AMQP URL is set")
		}
		if c.AMQPQueue == "" {
			return fmt.Errorf("AMQP queue cannot be empty when AMQP URL is set")
		}
	}

	if c.RateFetchTimeout < time.Second {
		return fmt.Errorf("invalid rate fetch timeout %v: must be at least 1s", c.RateFetchTimeout)
	}
	if c.RateRefreshInterval < time.Minute {
		return fmt.Errorf("invalid rate refresh interval %v: must be at least 1m", c.RateRefreshInterval)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache TTL %v", c.CacheTTL)
	}

	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); err != nil {
			return fmt.Errorf("categories file %q: %w", c.CategoriesFile, err)
		}
	}

	return nil
}

// SlogLevel maps the configured level name onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
