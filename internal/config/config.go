package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the chat service.
// Environment variables are automatically parsed from the FOODIARY_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort       int      `envconfig:"HTTP_PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:""`

	// Fast tier (Redis)
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Durable store. Driver is mongo or postgres; "auto" derives mongo.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	MongoURI    string `envconfig:"MONGO_URI" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// History bounds
	MaxRecordCount   int           `envconfig:"MAX_RECORD_COUNT" default:"5"`
	HistoryTTL       time.Duration `envconfig:"HISTORY_TTL" default:"1h"`
	MaxUserCount     int64         `envconfig:"MAX_USER_COUNT" default:"9000"`
	EvictionInterval time.Duration `envconfig:"EVICTION_INTERVAL" default:"1h"`

	// DurabilityMode controls whether the durable-store append blocks the
	// chat response: async (fire-and-forget) or sync.
	DurabilityMode string `envconfig:"DURABILITY_MODE" default:"async"`

	// Retrieval / generation
	SearchIndexURL  string `envconfig:"SEARCH_INDEX_URL" default:"localhost:8081"`
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY" default:""`
	GenModel        string `envconfig:"GEN_MODEL" default:"gemini-1.5-flash"`
	EmbedModel      string `envconfig:"EMBED_MODEL" default:"text-embedding-004"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"zh-TW"`

	// Telemetry (CloudWatch). Metrics are skipped when disabled.
	MetricsEnabled   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	AWSRegion        string `envconfig:"AWS_REGION" default:""`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"FooDiary"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates the durable-store driver and durability mode,
// deriving the driver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = "mongo"
	}
	allowedDB := map[string]bool{"mongo": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	switch c.DurabilityMode {
	case "async", "sync":
	default:
		return fmt.Errorf("unsupported DURABILITY_MODE: %s", c.DurabilityMode)
	}

	if c.MaxRecordCount <= 0 {
		return fmt.Errorf("MAX_RECORD_COUNT must be positive, got %d", c.MaxRecordCount)
	}
	if c.MaxUserCount <= 0 {
		return fmt.Errorf("MAX_USER_COUNT must be positive, got %d", c.MaxUserCount)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with FOODIARY_
// Example: FOODIARY_REDIS_ADDR, FOODIARY_HTTP_PORT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("FOODIARY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("redis_addr", cfg.RedisAddr).
		Str("durability_mode", cfg.DurabilityMode).
		Int("max_record_count", cfg.MaxRecordCount).
		Dur("history_ttl", cfg.HistoryTTL).
		Int64("max_user_count", cfg.MaxUserCount).
		Str("search_index_url", cfg.SearchIndexURL).
		Str("gen_model", cfg.GenModel).
		Str("embed_model", cfg.EmbedModel).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,

		HTTPPort:  8080,
		RedisAddr: "localhost:6379",

		DBDriver: "mongo",
		MongoURI: "mongodb://localhost:27017",

		MaxRecordCount:   5,
		HistoryTTL:       time.Hour,
		MaxUserCount:     9000,
		EvictionInterval: time.Hour,
		DurabilityMode:   "async",

		SearchIndexURL:  "localhost:8081",
		GenModel:        "gemini-1.5-flash",
		EmbedModel:      "text-embedding-004",
		DefaultLanguage: "zh-TW",

		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
