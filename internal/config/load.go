package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TASKSHARE_DATABASE_URL for database.url.
const EnvPrefix = "TASKSHARE"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 15,
	"database.max_open_conns":         10,
	"database.max_idle_conns":         5,
	"auth.token_lifetime_minutes":     60,
	"cache.enabled":                   false,
	"cache.redis_db":                  0,
	"cache.default_ttl_seconds":       300,
	"cache.operation_timeout_ms":      250,
	"scheduler.enabled":               true,
	"scheduler.interval_seconds":      60,
	"scheduler.tick_timeout_seconds":  50,
	"scheduler.timezone":              "UTC",
}

// Keys without defaults must be bound explicitly or viper's Unmarshal never
// sees their environment variables.
var boundKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"cache.redis_addr",
	"cache.redis_password",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs the struct-tag rules on cfg.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
