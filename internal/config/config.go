// Package config loads and validates runtime configuration for the alert
// pipeline. Values come from environment variables bound into viper, with an
// optional YAML config file overlay and fail-fast validation: a missing
// required value is an error at startup, never a silent default.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jobmate/alertpipeline/internal/secrets"
)

// Config holds every runtime setting the alert pipeline's workers need.
type Config struct {
	Port string `mapstructure:"port"`

	DatabaseURL string `mapstructure:"database-url"`
	RedisURL    string `mapstructure:"redis-url"`

	Chat       ChatConfig       `mapstructure:"chat"`
	Model      ModelConfig      `mapstructure:"model"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`

	// MinMatchScore is the rule matcher's dispatch threshold (spec default 39).
	MinMatchScore int `mapstructure:"min-match-score"`
	// DailyCap is the maximum number of delivery-history rows per user per
	// calendar day (spec default 10).
	DailyCap int `mapstructure:"daily-cap"`
	// WindowHours is the outbound window duration (spec default 24).
	WindowHours int `mapstructure:"window-hours"`

	EnrichmentBatchSize int `mapstructure:"enrichment-batch-size"`
	EnrichmentWorkers   int `mapstructure:"enrichment-workers"`

	Cadences CadenceConfig `mapstructure:"cadences"`
}

// ChatConfig configures the outbound/inbound chat-provider transport.
type ChatConfig struct {
	BaseURL       string `mapstructure:"base-url"`
	AccessToken   string `mapstructure:"access-token"`
	AccessTokenFile string `mapstructure:"access-token-file"`
	WebhookSecret string `mapstructure:"webhook-secret"`
	WebhookSecretFile string `mapstructure:"webhook-secret-file"`
	VerifyToken   string `mapstructure:"verify-token"`
}

// ModelConfig configures the generative model used for enrichment.
type ModelConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Name       string `mapstructure:"name"`
}

// EmbeddingsConfig configures the embedding backend.
type EmbeddingsConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Name       string `mapstructure:"name"`
	CacheSize  int    `mapstructure:"cache-size"`
}

// CadenceConfig configures how often each periodic worker runs.
type CadenceConfig struct {
	ReminderScan        time.Duration `mapstructure:"reminder-scan"`
	Enrichment          time.Duration `mapstructure:"enrichment"`
	EmbeddingBackfill    time.Duration `mapstructure:"embedding-backfill"`
	StaleEmbeddingRefresh time.Duration `mapstructure:"stale-embedding-refresh"`
	DuplicatePurge        time.Duration `mapstructure:"duplicate-purge"`
	OldRecordPurge        time.Duration `mapstructure:"old-record-purge"`
}

// Load builds a Config from viper's current state (flags, environment,
// optional config file already read by the caller) and validates it.
func Load(v *viper.Viper) (*Config, error) {
	bindEnv(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := resolveSecrets(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	binds := map[string]string{
		"port":                    "ALERTD_PORT",
		"database-url":            "DATABASE_URL",
		"redis-url":               "REDIS_URL",
		"chat.base-url":           "CHAT_BASE_URL",
		"chat.access-token":       "CHAT_ACCESS_TOKEN",
		"chat.access-token-file":  "CHAT_ACCESS_TOKEN_FILE",
		"chat.webhook-secret":     "CHAT_WEBHOOK_SECRET",
		"chat.webhook-secret-file": "CHAT_WEBHOOK_SECRET_FILE",
		"chat.verify-token":       "CHAT_VERIFY_TOKEN",
		"model.api-key":           "MODEL_API_KEY",
		"model.api-key-file":      "MODEL_API_KEY_FILE",
		"model.name":              "MODEL_NAME",
		"embeddings.api-key":      "EMBEDDING_API_KEY",
		"embeddings.api-key-file": "EMBEDDING_API_KEY_FILE",
		"embeddings.name":         "EMBEDDING_MODEL_NAME",
		"embeddings.cache-size":   "EMBEDDING_CACHE_SIZE",
		"min-match-score":         "MIN_MATCH_SCORE",
		"daily-cap":               "DAILY_CAP",
		"window-hours":            "WINDOW_HOURS",
		"enrichment-batch-size":   "ENRICHMENT_BATCH_SIZE",
		"enrichment-workers":      "ENRICHMENT_WORKERS",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("min-match-score", 39)
	v.SetDefault("daily-cap", 10)
	v.SetDefault("window-hours", 24)
	v.SetDefault("enrichment-batch-size", 50)
	v.SetDefault("enrichment-workers", 2)
	v.SetDefault("embeddings.cache-size", 4096)
	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("embeddings.name", "gemini-embedding-001")
	v.SetDefault("cadences.reminder-scan", 5*time.Minute)
	v.SetDefault("cadences.enrichment", 2*time.Hour)
	v.SetDefault("cadences.embedding-backfill", 20*time.Minute)
	v.SetDefault("cadences.stale-embedding-refresh", 24*time.Hour)
	v.SetDefault("cadences.duplicate-purge", 5*time.Hour)
	v.SetDefault("cadences.old-record-purge", 24*time.Hour)
}

func resolveSecrets(cfg *Config) error {
	token, err := secrets.Load(secrets.Source{
		Name: "chat access token", Value: cfg.Chat.AccessToken, File: cfg.Chat.AccessTokenFile,
	})
	if err == nil {
		cfg.Chat.AccessToken = token
	}

	webhookSecret, err := secrets.Load(secrets.Source{
		Name: "chat webhook secret", Value: cfg.Chat.WebhookSecret, File: cfg.Chat.WebhookSecretFile,
	})
	if err != nil {
		return fmt.Errorf("chat webhook secret: %w", err)
	}
	cfg.Chat.WebhookSecret = webhookSecret

	modelKey, err := secrets.Load(secrets.Source{
		Name: "model api key", Value: cfg.Model.APIKey, File: cfg.Model.APIKeyFile,
	})
	if err != nil {
		return fmt.Errorf("model api key: %w", err)
	}
	cfg.Model.APIKey = modelKey

	embedKey, err := secrets.Load(secrets.Source{
		Name: "embedding api key", Value: cfg.Embeddings.APIKey, File: cfg.Embeddings.APIKeyFile,
	})
	if err != nil {
		return fmt.Errorf("embedding api key: %w", err)
	}
	cfg.Embeddings.APIKey = embedKey

	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Chat.BaseURL == "" {
		return fmt.Errorf("CHAT_BASE_URL is required")
	}
	if c.MinMatchScore < 0 || c.MinMatchScore > 100 {
		return fmt.Errorf("min-match-score must be within [0, 100], got %d", c.MinMatchScore)
	}
	if c.DailyCap < 1 {
		return fmt.Errorf("daily-cap must be a positive integer, got %d", c.DailyCap)
	}
	if c.WindowHours < 1 {
		return fmt.Errorf("window-hours must be a positive integer, got %d", c.WindowHours)
	}
	if c.EnrichmentBatchSize < 1 {
		return fmt.Errorf("enrichment-batch-size must be a positive integer, got %d", c.EnrichmentBatchSize)
	}
	if c.EnrichmentWorkers < 1 {
		return fmt.Errorf("enrichment-workers must be a positive integer, got %d", c.EnrichmentWorkers)
	}
	return nil
}
