package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1,lte=44640"`
}

// TokenLifetime returns how long an issued access token stays valid.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// CacheConfig controls the per-user task listing cache. When Enabled is
// false the cache always misses and Redis is never contacted.
type CacheConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	RedisAddr          string `mapstructure:"redis_addr" validate:"required_if=Enabled true"`
	RedisPassword      string `mapstructure:"redis_password"`
	RedisDB            int    `mapstructure:"redis_db" validate:"gte=0"`
	DefaultTTLSeconds  int    `mapstructure:"default_ttl_seconds" validate:"gte=1"`
	OperationTimeoutMS int    `mapstructure:"operation_timeout_ms" validate:"gte=1"`
}

// DefaultTTL returns the expiry applied when a caller passes no TTL.
func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// OperationTimeout returns the bound on a single cache backend call.
func (c CacheConfig) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutMS) * time.Millisecond
}

// SchedulerConfig controls the recurring task materialization loop.
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	IntervalSeconds    int    `mapstructure:"interval_seconds" validate:"gte=1"`
	TickTimeoutSeconds int    `mapstructure:"tick_timeout_seconds" validate:"gte=1"`
	Timezone           string `mapstructure:"timezone" validate:"required,timezone"`
}

// Interval returns the time between materialization passes.
func (c SchedulerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// TickTimeout returns the deadline applied to a single pass.
func (c SchedulerConfig) TickTimeout() time.Duration {
	return time.Duration(c.TickTimeoutSeconds) * time.Second
}

// Location resolves Timezone. Validation guarantees it loads.
func (c SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
