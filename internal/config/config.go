// Package config defines all configuration structures for labelwise. No I/O
// or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters. The relational
// store is the source of truth for aggregated ingredient records.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds the optional shared fact-cache parameters. When Enabled
// is false the engine runs with the in-process cache only.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MinIOConfig holds the document-mirror object-store parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// KafkaConfig holds producer/consumer parameters for the audit and
// reconcile topics.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// RateLimitConfig is a token bucket: Limit tokens refill every Period.
type RateLimitConfig struct {
	Period         time.Duration `mapstructure:"period"`
	Limit          int           `mapstructure:"limit"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

// BreakerConfig parameterizes the per-provider circuit breaker.
type BreakerConfig struct {
	FailureRate    float64       `mapstructure:"failure_rate"`
	MinCalls       int           `mapstructure:"min_calls"`
	Window         time.Duration `mapstructure:"window"`
	OpenDuration   time.Duration `mapstructure:"open_duration"`
	HalfOpenProbes int           `mapstructure:"half_open_probes"`
}

// ProviderConfig declares one external information source. Adding a
// provider is a configuration change plus an adapter registration; the
// orchestrator never changes.
type ProviderConfig struct {
	ID              string          `mapstructure:"id"`
	Enabled         bool            `mapstructure:"enabled"`
	BaseURL         string          `mapstructure:"base_url"`
	AuthEnv         string          `mapstructure:"auth_env"` // env var holding the API key; empty = unauthenticated
	Priority        int             `mapstructure:"priority"` // lower is higher priority
	Weight          float64         `mapstructure:"weight"`
	TTL             time.Duration   `mapstructure:"ttl"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	Breaker         BreakerConfig   `mapstructure:"breaker"`
	MaxConcurrent   int             `mapstructure:"max_concurrent"`
	MaxRetries      int             `mapstructure:"max_retries"`
	RetryBackoff    time.Duration   `mapstructure:"retry_backoff"`
	PerCallDeadline time.Duration   `mapstructure:"per_call_deadline"`
}

// CacheConfig holds in-process cache bounds.
type CacheConfig struct {
	MaxEntries   int           `mapstructure:"max_entries"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	RecordMaxAge time.Duration `mapstructure:"record_max_age"`
}

// OrchestratorConfig holds resolution-wide bounds.
type OrchestratorConfig struct {
	MaxGlobalInFlight    int           `mapstructure:"max_global_in_flight"`
	OverallDeadline      time.Duration `mapstructure:"overall_deadline"`
	MinProvidersForFresh int           `mapstructure:"min_providers_for_fresh"`
	MaxTokens            int           `mapstructure:"max_tokens"`
	MaxTokenLength       int           `mapstructure:"max_token_length"`
}

// SuitabilityConfig holds product-verdict thresholds: a product scores
// "suitable" at or above SuitableMin, "caution" at or above CautionMin,
// "avoid" below.
type SuitabilityConfig struct {
	SuitableMin int `mapstructure:"suitable_min"`
	CautionMin  int `mapstructure:"caution_min"`
}

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Log          LogConfig          `mapstructure:"log"`
	Providers    []ProviderConfig   `mapstructure:"providers"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Suitability  SuitabilityConfig  `mapstructure:"suitability"`
}

// Provider returns the configuration for the given provider id, or nil.
func (c *Config) Provider(id string) *ProviderConfig {
	for i := range c.Providers {
		if c.Providers[i].ID == id {
			return &c.Providers[i]
		}
	}
	return nil
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis.enabled")
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required when minio.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker when kafka.enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}

	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider must be configured")
	}
	seen := map[string]struct{}{}
	for _, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("config: providers[].id is required")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("config: duplicate provider id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Weight < 0 || p.Weight > 1 {
			return fmt.Errorf("config: provider %q weight %v is out of range [0, 1]", p.ID, p.Weight)
		}
		if p.Breaker.FailureRate <= 0 || p.Breaker.FailureRate > 1 {
			return fmt.Errorf("config: provider %q breaker.failure_rate %v is out of range (0, 1]", p.ID, p.Breaker.FailureRate)
		}
		if p.MaxConcurrent < 1 {
			return fmt.Errorf("config: provider %q max_concurrent must be ≥ 1", p.ID)
		}
	}

	if c.Orchestrator.MaxGlobalInFlight < 1 {
		return fmt.Errorf("config: orchestrator.max_global_in_flight must be ≥ 1")
	}
	if c.Orchestrator.MinProvidersForFresh < 1 {
		return fmt.Errorf("config: orchestrator.min_providers_for_fresh must be ≥ 1")
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("config: cache.max_entries must be ≥ 1")
	}
	if c.Suitability.CautionMin >= c.Suitability.SuitableMin {
		return fmt.Errorf("config: suitability.caution_min must be below suitable_min")
	}
	return nil
}
