package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TempPlayerTTL expires temporary players; registered players never expire
	TempPlayerTTL time.Duration

	// MaxTxRetries bounds optimistic transaction retries on WATCH conflicts
	MaxTxRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		TempPlayerTTL: 24 * time.Hour,
		MaxTxRetries:  10,
	}
}
