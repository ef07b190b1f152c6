package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the admin app.
type Config struct {
	Addr string `envconfig:"ADMIN_ADDR" default:":3000"`
	Env  string `envconfig:"ADMIN_ENV" default:"development"`

	// Base URL of the inventory backend, without the /api suffix.
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:5050"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	// JWTSecret must match the secret the inventory backend signs tokens with.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// How long transient status messages stay on screen.
	MessageTTL time.Duration `envconfig:"MESSAGE_TTL" default:"4s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the app runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
