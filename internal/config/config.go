// Package config loads application configuration from a YAML file and
// environment variables prefixed with VOICEDESK_.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/voicedesk/voicedesk/internal/api"
	"github.com/voicedesk/voicedesk/internal/cache"
	"github.com/voicedesk/voicedesk/internal/database"
	"github.com/voicedesk/voicedesk/internal/embedding"
	"github.com/voicedesk/voicedesk/internal/llm"
	"github.com/voicedesk/voicedesk/internal/notifications"
	"github.com/voicedesk/voicedesk/internal/observability"
	"github.com/voicedesk/voicedesk/internal/rag"
)

// Config holds the complete application configuration
type Config struct {
	API           api.Config                  `mapstructure:"api"`
	Database      database.Config             `mapstructure:"database"`
	Cache         cache.RedisConfig           `mapstructure:"cache"`
	Embedding     embedding.Config            `mapstructure:"embedding"`
	LLM           llm.Config                  `mapstructure:"llm"`
	Retrieval     RetrievalConfig             `mapstructure:"retrieval"`
	Persona       rag.Persona                 `mapstructure:"persona"`
	Notifications notifications.Config        `mapstructure:"notifications"`
	Worker        WorkerConfig                `mapstructure:"worker"`
	Tracing       observability.TracingConfig `mapstructure:"tracing"`
}

// RetrievalConfig tunes the context retrieval stage
type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

// WorkerConfig sizes the background task pool
type WorkerConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	configFile := os.Getenv("VOICEDESK_CONFIG_FILE")
	if configFile == "" {
		configFile = "configs/config.yaml"
	}
	v.SetConfigFile(configFile)

	v.SetEnvPrefix("VOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is not required if environment variables are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.listen_address", ":8080")
	v.SetDefault("api.read_timeout", 30*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)
	v.SetDefault("api.idle_timeout", 90*time.Second)
	v.SetDefault("api.enable_cors", true)

	// Chat rate limiting defaults
	v.SetDefault("api.rate_limit.enabled", true)
	v.SetDefault("api.rate_limit.limit", 20)
	v.SetDefault("api.rate_limit.window", time.Minute)

	// Webhook defaults: signature verification is mandatory unless
	// allow_unverified is set explicitly for non-production use
	v.SetDefault("api.webhook.allow_unverified", false)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Cache defaults
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.dial_timeout", 5*time.Second)
	v.SetDefault("cache.read_timeout", 3*time.Second)
	v.SetDefault("cache.write_timeout", 3*time.Second)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.min_idle_conns", 2)
	v.SetDefault("cache.pool_timeout", 4*time.Second)

	// Embedding defaults
	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("embedding.cache_size", 1024)

	// Completion defaults
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 1024)

	// Retrieval defaults
	v.SetDefault("retrieval.top_k", 3)

	// Persona defaults: neutral tone
	v.SetDefault("persona.warmth", 3)
	v.SetDefault("persona.formality", 3)
	v.SetDefault("persona.humor", false)

	// Worker defaults
	v.SetDefault("worker.workers", 4)
	v.SetDefault("worker.queue_size", 256)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "voicedesk")
}
