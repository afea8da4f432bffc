// Package config provides application configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv           string // Application environment (dev, staging, prod)
	HTTPAddr         string // HTTP server bind address (e.g., ":8080")
	MetricsAddr      string // Metrics/pprof server bind address
	StoreType        string // Storage backend type (postgres or memory)
	DatabaseDSN      string // PostgreSQL connection string
	RulesetFile      string // Path to a YAML ruleset; empty means built-in rules
	MaxBodyBytes     int64  // Upper bound on accepted scan payload size
	AdminAPIKey      string // Admin API key for history access
	ClientAPIKey     string // Client API key for submitting scans
	RateLimitPerIP   int    // Requests per minute per client IP
	HistoryQueueSize int    // Buffered capacity of the async history recorder
}

const defaultAdminKey = "dev-admin-key"

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
//
// Load does not check constraints; call Validate() to fail fast on a
// configuration that cannot serve.
func Load() (*Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = viperInstance.ReadInConfig()    // Ignore error - .env is optional
	viperInstance.AutomaticEnv()        // Read from environment variables

	setConfigDefaults(viperInstance)

	return &Config{
		AppEnv:           viperInstance.GetString("APP_ENV"),
		HTTPAddr:         viperInstance.GetString("APP_HTTP_ADDR"),
		MetricsAddr:      viperInstance.GetString("METRICS_ADDR"),
		StoreType:        viperInstance.GetString("STORE_TYPE"),
		DatabaseDSN:      viperInstance.GetString("DB_DSN"),
		RulesetFile:      viperInstance.GetString("RULESET_FILE"),
		MaxBodyBytes:     viperInstance.GetInt64("MAX_BODY_BYTES"),
		AdminAPIKey:      viperInstance.GetString("ADMIN_API_KEY"),
		ClientAPIKey:     viperInstance.GetString("CLIENT_API_KEY"),
		RateLimitPerIP:   viperInstance.GetInt("RATE_LIMIT_PER_IP"),
		HistoryQueueSize: viperInstance.GetInt("HISTORY_QUEUE_SIZE"),
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
// These defaults are suitable for local development but should be overridden in production.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("STORE_TYPE", "memory")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("RULESET_FILE", "")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("ADMIN_API_KEY", defaultAdminKey) // Change in production!
	v.SetDefault("CLIENT_API_KEY", "dev-client-key")
	v.SetDefault("RATE_LIMIT_PER_IP", 100)
	v.SetDefault("HISTORY_QUEUE_SIZE", 256)
}

// ValidationError represents a configuration validation error with details about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is suitable for serving.
//
// Rules:
//  1. StoreType must be one of: "memory", "postgres"
//  2. If StoreType is "postgres", DatabaseDSN must be non-empty
//  3. HTTPAddr and MetricsAddr must be non-empty
//  4. MaxBodyBytes and HistoryQueueSize must be positive
//
// In production (AppEnv "prod" or "production"), the admin API key must not
// be the development default.
func (c *Config) Validate() error {
	if c.StoreType != "memory" && c.StoreType != "postgres" {
		return ValidationError{
			Field:   "STORE_TYPE",
			Message: fmt.Sprintf("must be 'memory' or 'postgres', got '%s'", c.StoreType),
		}
	}

	if c.StoreType == "postgres" && c.DatabaseDSN == "" {
		return ValidationError{
			Field:   "DB_DSN",
			Message: "database DSN is required when STORE_TYPE=postgres",
		}
	}

	if c.HTTPAddr == "" {
		return ValidationError{
			Field:   "APP_HTTP_ADDR",
			Message: "HTTP server address cannot be empty",
		}
	}

	if c.MetricsAddr == "" {
		return ValidationError{
			Field:   "METRICS_ADDR",
			Message: "metrics server address cannot be empty",
		}
	}

	if c.MaxBodyBytes <= 0 {
		return ValidationError{
			Field:   "MAX_BODY_BYTES",
			Message: fmt.Sprintf("must be positive, got %d", c.MaxBodyBytes),
		}
	}

	if c.HistoryQueueSize <= 0 {
		return ValidationError{
			Field:   "HISTORY_QUEUE_SIZE",
			Message: fmt.Sprintf("must be positive, got %d", c.HistoryQueueSize),
		}
	}

	if c.AppEnv == "prod" || c.AppEnv == "production" {
		if c.AdminAPIKey == defaultAdminKey {
			return ValidationError{
				Field:   "ADMIN_API_KEY",
				Message: fmt.Sprintf("default admin API key '%s' is not allowed in production", defaultAdminKey),
			}
		}
	}

	return nil
}
