// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server's environment-driven settings
type Config struct {
	StorageType    string        `env:"RPSLS_STORAGE_TYPE"    envDefault:"memory"`
	StorageTimeout time.Duration `env:"RPSLS_STORAGE_TIMEOUT" envDefault:"5s"`

	SQLitePath string `env:"RPSLS_SQLITE_PATH" envDefault:"rpsls.db"`

	RedisURL      string        `env:"RPSLS_REDIS_URL"       envDefault:"redis://localhost:6379"`
	RedisPoolSize int           `env:"RPSLS_REDIS_POOL_SIZE" envDefault:"10"`
	TempPlayerTTL time.Duration `env:"RPSLS_TEMP_PLAYER_TTL" envDefault:"24h"`

	HTTPHost string `env:"RPSLS_HTTP_HOST"`
	HTTPPort int    `env:"RPSLS_HTTP_PORT" envDefault:"8080"`

	LogLevel string `env:"RPSLS_LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses the given variables instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values env tags cannot express
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid RPSLS_STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}
	if c.StorageType == "sqlite" && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("RPSLS_SQLITE_PATH required when RPSLS_STORAGE_TYPE=sqlite")
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid RPSLS_HTTP_PORT %d", c.HTTPPort)
	}
	if c.StorageTimeout < 0 {
		return fmt.Errorf("RPSLS_STORAGE_TIMEOUT must not be negative")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid RPSLS_LOG_LEVEL %q", s)
	}
	return level, nil
}
