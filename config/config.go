// Package config loads process-wide settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the service settings that are not database specific.
// Database connection settings live in v1.DatabaseConfig.
type Config struct {
	Port        string `envconfig:"PORT" default:"3000"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"membership-backend"`

	// JWT
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"membership-backend"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`

	// Redis backs the per-member webhook lock. Empty address falls back to an in-process lock.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	WebhookLockTTL time.Duration `envconfig:"WEBHOOK_LOCK_TTL" default:"10s"`

	AuditServiceURL    string   `envconfig:"AUDIT_SERVICE_URL"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// Load reads Config from the environment and validates it.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values envconfig cannot express as tags.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.WebhookLockTTL <= 0 {
		return fmt.Errorf("WEBHOOK_LOCK_TTL must be positive, got %s", c.WebhookLockTTL)
	}
	return nil
}

// UseRedis reports whether a Redis address is configured.
func (c Config) UseRedis() bool {
	return c.RedisAddr != ""
}
