package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingProvider wraps a Provider with an in-memory LRU cache keyed by the
// input text. Providers are deterministic per input, so cached vectors are
// always valid for the lifetime of the process.
type CachingProvider struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCachingProvider wraps the given provider with an LRU cache of the
// given size
func NewCachingProvider(inner Provider, size int) (*CachingProvider, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachingProvider{
		inner: inner,
		cache: cache,
	}, nil
}

// Embed returns the cached vector for the text, computing it on a miss
func (p *CachingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := p.cache.Get(text); ok {
		return vector, nil
	}

	vector, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	p.cache.Add(text, vector)
	return vector, nil
}

// Dimensions returns the fixed dimensionality of produced vectors
func (p *CachingProvider) Dimensions() int {
	return p.inner.Dimensions()
}
