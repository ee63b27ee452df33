// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the configuration for the mediverse auth API.
type Config struct {
	Environment string `env:"APP_ENV"   envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"mediverse"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL"           envDefault:"720h"`
	CookieName    string        `env:"SESSION_COOKIE_NAME"   envDefault:"mediverse.session-token"`
	CookieDomain  string        `env:"SESSION_COOKIE_DOMAIN"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

// New creates a Config instance from environment variables. Invalid or
// incomplete configuration terminates the process.
func New(logger *zerolog.Logger) *Config {
	cfg, err := Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	return cfg
}

// Load parses and validates the configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs in a production transport
// context, which turns on the Secure flag for session cookies.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GoogleEnabled reports whether federated sign-in with Google is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// validate checks that required settings are present and that the optional
// Google OAuth settings are either fully configured or absent.
func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("missing MONGODB_URI environment variable")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("missing SESSION_SECRET environment variable")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.GoogleClientID != "" {
		if c.GoogleClientSecret == "" {
			return fmt.Errorf("missing GOOGLE_CLIENT_SECRET environment variable")
		}
		if c.GoogleRedirectURL == "" {
			return fmt.Errorf("missing GOOGLE_REDIRECT_URL environment variable")
		}
	}

	return nil
}
