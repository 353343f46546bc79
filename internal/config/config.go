// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Cache    CacheConfig
	Logging  LoggingConfig
	Frontend FrontendConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// DatasetConfig holds settings for the locality dataset and its source.
type DatasetConfig struct {
	// URI locates the source: a file path (.json, .csv, .xlsx), an http(s) URL,
	// or a sqlite://, mysql:// or postgres:// DSN.
	URI string `env:"DATASET_URI" envAlt:"DATA_URL" default:"./data/localidades_60plus.json"`

	// Format overrides detection from the URI: json, csv, xlsx, sqlite, mysql, postgres
	Format string `env:"DATASET_FORMAT"`

	// Encoding of CSV sources: utf-8 or latin1 (default: utf-8)
	Encoding string `env:"DATASET_ENCODING" default:"utf-8"`

	// Sheet is the XLSX sheet to read (default: first sheet)
	Sheet string `env:"DATASET_SHEET"`

	// Table is the table or view read by database sources (default: localidades)
	Table string `env:"DATASET_TABLE" default:"localidades"`

	// MinPopulation is the total_2022 threshold for the working set (default: 2000)
	MinPopulation float64 `env:"DATASET_MIN_POPULATION" default:"2000"`

	// ReloadInterval is how often to reload the source; 0 disables (default: 0s)
	ReloadInterval time.Duration `env:"DATASET_RELOAD_INTERVAL" default:"0s"`

	// ReloadWait is how long a reload waits for a running one (default: 30s)
	ReloadWait time.Duration `env:"DATASET_RELOAD_WAIT" default:"30s"`

	// FetchTimeout bounds a single source read (default: 60s)
	FetchTimeout time.Duration `env:"DATASET_FETCH_TIMEOUT" default:"60s"`

	// SearchLimit caps search results (default: 10)
	SearchLimit int `env:"DATASET_SEARCH_LIMIT" default:"10"`
}

// DatabaseConfig holds pool settings for postgres:// dataset sources.
type DatabaseConfig struct {
	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ReloadLimit is requests per minute for the reload endpoint (default: 5)
	ReloadLimit int `env:"RATE_LIMIT_RELOAD" default:"5"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSOrigins is a comma-separated list of allowed browser origins (default: *)
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// RequireAPIKey protects admin routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted admin keys
	APIKeys []string `env:"API_KEYS"`
}

// CacheConfig holds settings for memoized filter results.
type CacheConfig struct {
	// TTL is how long a filter result is kept (default: 10m)
	TTL time.Duration `env:"CACHE_TTL" default:"10m"`

	// Cleanup is how often expired entries are swept (default: 20m)
	Cleanup time.Duration `env:"CACHE_CLEANUP_INTERVAL" default:"20m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// FrontendConfig holds values handed to the browser map client.
type FrontendConfig struct {
	// MapboxToken is exposed through /assets/config.js
	MapboxToken string `env:"MAPBOX_TOKEN"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
