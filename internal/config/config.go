package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gt=0"`
}

// AuthConfig contains all authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"`
}

// TaskConfig contains settings for the task lifecycle engine.
type TaskConfig struct {
	// WriteTimeout bounds every persistence call made while validating and
	// applying a transition.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`

	// BatchWorkers is the number of transitions a batch applies concurrently.
	BatchWorkers int `mapstructure:"batch_workers" validate:"gt=0,lte=256"`

	// BatchMaxSize caps the number of task IDs accepted in one batch request.
	BatchMaxSize int `mapstructure:"batch_max_size" validate:"gt=0"`

	AuditQueueSize int `mapstructure:"audit_queue_size" validate:"gt=0"`
	AuditWorkers   int `mapstructure:"audit_workers"    validate:"gt=0,lte=64"`

	// EnableGenericStatusEndpoint mounts PATCH /tasks/{id}/status.
	EnableGenericStatusEndpoint bool `mapstructure:"enable_generic_status_endpoint"`
}
