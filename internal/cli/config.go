package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string `env:"RPSLS_SERVER" envDefault:"http://localhost:8080"`
	Output    string `env:"RPSLS_OUTPUT" envDefault:"text"`
	Verbose   bool   `env:"RPSLS_VERBOSE"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{ServerURL: "http://localhost:8080", Output: "text"}
}

// LoadConfig parses the process environment
func LoadConfig() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// LoadConfigFrom parses the given variables instead of the process environment
func LoadConfigFrom(vars map[string]string) (*Config, error) {
	c := &Config{}
	if err := env.ParseWithOptions(c, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
