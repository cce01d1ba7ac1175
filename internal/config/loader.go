package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "taskflow.yaml"

// Overrides carries values set explicitly on the command line. Nil fields
// leave the loaded configuration untouched.
type Overrides struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	Backend    *string
	SQLitePath *string
	DSN        *string
	NatsURL    *string
	Model      *string
}

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	return LoadWithOverrides(Overrides{ConfigPath: &yamlPath})
}

// LoadWithOverrides loads defaults < YAML < ENV and then applies CLI
// overrides on top before validating.
func LoadWithOverrides(o Overrides) (*Config, error) {
	cfg := Defaults()

	path := DefaultConfigFile
	if o.ConfigPath != nil && *o.ConfigPath != "" {
		path = *o.ConfigPath
	}

	if err := loadYAML(&cfg, path); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyOverrides(&cfg, o)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TASKFLOW_PORT")
	setString(&cfg.Server.CORSOrigin, "TASKFLOW_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "TASKFLOW_REQUEST_TIMEOUT")

	setString(&cfg.Storage.Backend, "TASKFLOW_STORAGE_BACKEND")
	setString(&cfg.Storage.Key, "TASKFLOW_STORAGE_KEY")
	setBool(&cfg.Storage.Cache, "TASKFLOW_STORAGE_CACHE")
	setInt64(&cfg.Storage.CacheMaxMB, "TASKFLOW_STORAGE_CACHE_MAX_MB")
	setString(&cfg.SQLite.Path, "TASKFLOW_SQLITE_PATH")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TASKFLOW_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TASKFLOW_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TASKFLOW_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TASKFLOW_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TASKFLOW_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Bucket, "TASKFLOW_NATS_BUCKET")
	setBool(&cfg.NATS.Publish, "TASKFLOW_NATS_PUBLISH")

	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.MasterKeyFile, "LITELLM_MASTER_KEY_FILE")
	setString(&cfg.LiteLLM.Model, "TASKFLOW_LLM_MODEL")
	setDuration(&cfg.LiteLLM.Timeout, "TASKFLOW_LLM_TIMEOUT")
	setFloat64(&cfg.LiteLLM.Temperature, "TASKFLOW_LLM_TEMPERATURE")
	setInt(&cfg.LiteLLM.MaxTokens, "TASKFLOW_LLM_MAX_TOKENS")

	setString(&cfg.Logging.Level, "TASKFLOW_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TASKFLOW_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TASKFLOW_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "TASKFLOW_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TASKFLOW_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "TASKFLOW_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TASKFLOW_RATE_BURST")

	setBool(&cfg.OTEL.Enabled, "TASKFLOW_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "TASKFLOW_OTEL_INSECURE")
}

// applyOverrides applies CLI flag values. CLI wins over everything else.
func applyOverrides(cfg *Config, o Overrides) {
	if o.Port != nil {
		cfg.Server.Port = *o.Port
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.Backend != nil {
		cfg.Storage.Backend = *o.Backend
	}
	if o.SQLitePath != nil {
		cfg.SQLite.Path = *o.SQLitePath
	}
	if o.DSN != nil {
		cfg.Postgres.DSN = *o.DSN
	}
	if o.NatsURL != nil {
		cfg.NATS.URL = *o.NatsURL
	}
	if o.Model != nil {
		cfg.LiteLLM.Model = *o.Model
	}
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Storage.Key == "" {
		return errors.New("storage.key is required")
	}
	switch cfg.Storage.Backend {
	case BackendSQLite:
		if cfg.SQLite.Path == "" {
			return errors.New("sqlite.path is required for the sqlite backend")
		}
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres backend")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case BackendNATS:
		if cfg.NATS.URL == "" || cfg.NATS.Bucket == "" {
			return errors.New("nats.url and nats.bucket are required for the nats backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q is not one of sqlite, postgres, nats, memory", cfg.Storage.Backend)
	}
	if cfg.Storage.Cache && cfg.Storage.CacheMaxMB < 1 {
		return errors.New("storage.cache_max_mb must be >= 1")
	}
	if cfg.NATS.Publish && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats.publish is set")
	}
	if cfg.LiteLLM.URL == "" {
		return errors.New("litellm.url is required")
	}
	if cfg.LiteLLM.Model == "" {
		return errors.New("litellm.model is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
