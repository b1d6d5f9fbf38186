// Package embedding maps text to fixed-dimension vectors. A single Provider
// implementation is selected by configuration at startup; there are no
// parallel embedding code paths in the request flow.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Provider maps text to a fixed-dimension numeric vector
type Provider interface {
	// Embed computes the embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed dimensionality of produced vectors
	Dimensions() int
}

// ProviderType identifies an embedding implementation
type ProviderType string

// Supported provider types
const (
	ProviderTypeOpenAI ProviderType = "openai"
	ProviderTypeLocal  ProviderType = "local"
)

// Config holds embedding provider configuration
type Config struct {
	Provider   ProviderType `mapstructure:"provider"`
	Model      string       `mapstructure:"model"`
	APIKey     string       `mapstructure:"api_key"`
	Endpoint   string       `mapstructure:"endpoint"`
	Dimensions int          `mapstructure:"dimensions"`
	CacheSize  int          `mapstructure:"cache_size"`
}

// NewProvider creates an embedding provider based on the configuration
func NewProvider(cfg Config) (Provider, error) {
	var provider Provider
	switch cfg.Provider {
	case ProviderTypeOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("embedding: api_key is required for the openai provider")
		}
		provider = NewOpenAIProvider(cfg)
	case ProviderTypeLocal:
		provider = NewLocalProvider(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("embedding: unsupported provider type: %s", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		return NewCachingProvider(provider, cfg.CacheSize)
	}
	return provider, nil
}
