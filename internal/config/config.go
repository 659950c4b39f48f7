// Package config loads the service configuration from the environment into
// an explicit struct. Nothing reads the environment at call time: the struct
// is built once and passed to constructors, so tests can run any number of
// configurations in-process.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Environment variable names.
const (
	portVar              = "PORT"
	appNameVar           = "APP_NAME"
	envVar               = "ENV"
	accessSecretVar      = "ACCESS_TOKEN_SECRET"
	refreshSecretVar     = "REFRESH_TOKEN_SECRET"
	accessTTLVar         = "ACCESS_TOKEN_TTL"
	refreshTTLVar        = "REFRESH_TOKEN_TTL"
	rememberMeTTLVar     = "REMEMBER_ME_TTL"
	bcryptCostVar        = "BCRYPT_COST"
	rateLimitWindowVar   = "RATE_LIMIT_WINDOW"
	rateLimitAttemptsVar = "RATE_LIMIT_MAX_ATTEMPTS"
	allowedOriginsVar    = "ALLOWED_ORIGINS"
)

// Config is the full configuration surface of the service.
type Config struct {
	Port    string
	AppName string
	Env     string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	RememberMeTTL      time.Duration
	BcryptCost         int

	RateLimitWindow      time.Duration
	RateLimitMaxAttempts int

	AllowedOrigins string
}

// FromEnv builds a Config from the environment. The access-token secret is
// required; the refresh secret falls back to the access secret when unset.
// RefreshSecretDefaulted reports that fallback so the caller can log the
// weaker posture.
func FromEnv() (*Config, error) {
	accessSecret := os.Getenv(accessSecretVar)
	if accessSecret == "" {
		return nil, errors.Errorf("%s is required", accessSecretVar)
	}

	c := &Config{
		Port:    getEnv(portVar, "8080"),
		AppName: getEnv(appNameVar, "Auth Service"),
		Env:     getEnv(envVar, "DEV"),

		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: getEnv(refreshSecretVar, accessSecret),
		AccessTokenTTL:     getDuration(accessTTLVar, 15*time.Minute),
		RefreshTokenTTL:    getDuration(refreshTTLVar, 7*24*time.Hour),
		RememberMeTTL:      getDuration(rememberMeTTLVar, 30*24*time.Hour),
		BcryptCost:         getInt(bcryptCostVar, 12),

		RateLimitWindow:      getDuration(rateLimitWindowVar, 15*time.Minute),
		RateLimitMaxAttempts: getInt(rateLimitAttemptsVar, 5),

		AllowedOrigins: getEnv(allowedOriginsVar, "*"),
	}
	return c, nil
}

// RefreshSecretDefaulted reports whether the refresh tokens share the access
// secret, which defeats the independent-secret isolation.
func (c *Config) RefreshSecretDefaulted() bool {
	return c.RefreshTokenSecret == c.AccessTokenSecret
}

// DevMode reports whether the service runs with development conveniences
// (console logging, verbose request logs).
func (c *Config) DevMode() bool {
	return c.Env == "DEV"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(name, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(name string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getInt(name string, defaultValue int) int {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
