// Package config provides hierarchical configuration loading for TaskFlow.
// Precedence: defaults < YAML file < environment variables < CLI flags.
package config

import "time"

// Storage backends for the task list slot.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
	BackendMemory   = "memory"
)

// Config holds all runtime configuration for the TaskFlow service and CLI.
type Config struct {
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	SQLite   SQLite   `yaml:"sqlite"`
	Postgres Postgres `yaml:"postgres"`
	NATS     NATS     `yaml:"nats"`
	LiteLLM  LiteLLM  `yaml:"litellm"`
	Logging  Logging  `yaml:"logging"`
	Breaker  Breaker  `yaml:"breaker"`
	Rate     Rate     `yaml:"rate"`
	OTEL     OTEL     `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port           string        `yaml:"port"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Storage selects where the task list slot lives.
type Storage struct {
	Backend    string `yaml:"backend"`      // "sqlite" | "postgres" | "nats" | "memory"
	Key        string `yaml:"key"`          // slot key holding the task list (default: "tasks")
	Cache      bool   `yaml:"cache"`        // front a durable backend with an in-process L1
	CacheMaxMB int64  `yaml:"cache_max_mb"` // L1 size budget
}

// SQLite holds the local database file configuration.
type SQLite struct {
	Path string `yaml:"path"`
}

// Postgres holds PostgreSQL connection configuration.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// NATS holds NATS JetStream configuration.
type NATS struct {
	URL     string `yaml:"url"`
	Bucket  string `yaml:"bucket"`  // KV bucket used by the "nats" storage backend
	Publish bool   `yaml:"publish"` // publish task events to the TASKFLOW stream
}

// LiteLLM holds LiteLLM proxy configuration.
type LiteLLM struct {
	URL           string        `yaml:"url"`
	MasterKey     string        `yaml:"master_key"`
	MasterKeyFile string        `yaml:"master_key_file"` // read on start and on SIGHUP; wins over master_key
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for the LiteLLM client.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration for the prioritize endpoint.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OTEL holds OpenTelemetry exporter configuration.
type OTEL struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:           "8080",
			CORSOrigin:     "http://localhost:3000",
			RequestTimeout: 90 * time.Second,
		},
		Storage: Storage{
			Backend:    BackendSQLite,
			Key:        "tasks",
			CacheMaxMB: 16,
		},
		SQLite: SQLite{
			Path: "taskflow.db",
		},
		Postgres: Postgres{
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		NATS: NATS{
			URL:    "nats://localhost:4222",
			Bucket: "taskflow",
		},
		LiteLLM: LiteLLM{
			URL:         "http://localhost:4000",
			Model:       "openai/gpt-4o-mini",
			Timeout:     60 * time.Second,
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Logging: Logging{
			Level:   "info",
			Service: "taskflow",
		},
		Breaker: Breaker{
			MaxFailures: 3,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 0.5,
			Burst:             3,
		},
		OTEL: OTEL{
			Endpoint: "localhost:4317",
			Insecure: true,
		},
	}
}
