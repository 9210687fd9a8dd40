// Package config provides centralized configuration management for the
// pipeline. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration, reporting every violation at once.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database  DatabaseConfig
	Store     StoreConfig
	Pipeline  PipelineConfig
	Generator GeneratorConfig
	Server    ServerConfig
	Logging   LoggingConfig
}

// DatabaseConfig holds warehouse connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// StoreConfig holds object-store settings for the landing and archive zones.
type StoreConfig struct {
	// Endpoint is the object store host:port (required), e.g. minio:9000
	Endpoint string `env:"STORE_ENDPOINT" envAlt:"MINIO_ENDPOINT" required:"true"`

	// AccessKey authenticates against the object store (required)
	AccessKey string `env:"STORE_ACCESS_KEY" envAlt:"MINIO_ROOT_USER" required:"true"`

	// SecretKey authenticates against the object store (required)
	SecretKey string `env:"STORE_SECRET_KEY" envAlt:"MINIO_ROOT_PASSWORD" required:"true"`

	// UseSSL enables TLS for object store connections (default: false)
	UseSSL bool `env:"STORE_USE_SSL" default:"false"`

	// LandingBucket is where new raw batches arrive (default: raw-data)
	LandingBucket string `env:"STORE_LANDING_BUCKET" default:"raw-data"`

	// ArchiveBucket is where processed batches are moved (default: processed-data)
	ArchiveBucket string `env:"STORE_ARCHIVE_BUCKET" default:"processed-data"`
}

// PipelineConfig holds batch processing settings.
type PipelineConfig struct {
	// TempDir is where downloaded and intermediate files are staged
	// (default: OS temp dir when empty)
	TempDir string `env:"PIPELINE_TEMP_DIR"`

	// UpsertPageSize is the number of rows queued per database round trip (default: 500)
	UpsertPageSize int `env:"PIPELINE_UPSERT_PAGE_SIZE" default:"500"`

	// RunTimeout is the maximum duration for a single pipeline run (default: 30m)
	RunTimeout time.Duration `env:"PIPELINE_RUN_TIMEOUT" default:"30m"`
}

// GeneratorConfig holds synthetic data generator settings.
type GeneratorConfig struct {
	// Rows is the number of synthetic orders per generated batch (default: 500)
	Rows int `env:"GENERATOR_ROWS" default:"500"`

	// Seed makes generated batches reproducible (default: 42)
	Seed int64 `env:"GENERATOR_SEED" default:"42"`
}

// ServerConfig holds settings for the ops HTTP server.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers may be trusted for client IP resolution
	TrustedProxies string `env:"SERVER_TRUSTED_PROXIES"`
}

// Addr returns the host:port listen address for the ops server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log output format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
