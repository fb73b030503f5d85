package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	StoreBackend string
	RedisURL     string
	SQLitePath   string
	ProfileID    string

	DefaultDifficulty player.Difficulty
	Features          scene.Features
	GhostDefeatDelay  time.Duration
	SessionIdleTTL    time.Duration

	OTelEnabled   bool
	EventsEnabled bool
}

// Load reads configuration from the environment, after merging in a
// .env file from the working directory if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		SQLitePath:   getEnv("SQLITE_PATH", "./mansion.db"),
		ProfileID:    getEnv("PROFILE_ID", ""),
	}

	var err error
	if cfg.DefaultDifficulty, err = player.ParseDifficulty(getEnv("DEFAULT_DIFFICULTY", string(player.DefaultDifficulty))); err != nil {
		return nil, fmt.Errorf("DEFAULT_DIFFICULTY: %w", err)
	}

	flags := []struct {
		key  string
		dest *bool
	}{
		{"FEATURE_DIFFICULTY", &cfg.Features.Difficulty},
		{"FEATURE_SECRET_ENDING", &cfg.Features.SecretEnding},
		{"FEATURE_SACRIFICE_ENDING", &cfg.Features.SacrificeEnding},
		{"FEATURE_COWARD_ENDING", &cfg.Features.CowardEnding},
		{"OTEL_ENABLED", &cfg.OTelEnabled},
		{"EVENTS_ENABLED", &cfg.EventsEnabled},
	}
	defaults := map[string]bool{
		"FEATURE_DIFFICULTY":       true,
		"FEATURE_SECRET_ENDING":    true,
		"FEATURE_SACRIFICE_ENDING": true,
		"FEATURE_COWARD_ENDING":    true,
	}
	for _, f := range flags {
		if *f.dest, err = getBool(f.key, defaults[f.key]); err != nil {
			return nil, err
		}
	}

	if cfg.GhostDefeatDelay, err = time.ParseDuration(getEnv("GHOST_DEFEAT_DELAY", "1s")); err != nil {
		return nil, fmt.Errorf("GHOST_DEFEAT_DELAY: %w", err)
	}
	if cfg.GhostDefeatDelay < 0 {
		return nil, fmt.Errorf("GHOST_DEFEAT_DELAY must not be negative")
	}
	// zero keeps API sessions until they are deleted
	if cfg.SessionIdleTTL, err = time.ParseDuration(getEnv("SESSION_IDLE_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TTL: %w", err)
	}
	if cfg.SessionIdleTTL < 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TTL must not be negative")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.EventsEnabled && c.StoreBackend != StoreRedis {
		return fmt.Errorf("EVENTS_ENABLED requires the redis store")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
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

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}
