package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultLocalDimensions = 256

// LocalProvider is a deterministic token-hashing embedder for development
// and test environments where no embedding model is reachable. Identical
// input always yields an identical vector. It is not a substitute for a
// real model in production.
type LocalProvider struct {
	dimensions int
}

// NewLocalProvider creates a local hash-based embedding provider
func NewLocalProvider(dimensions int) *LocalProvider {
	if dimensions <= 0 {
		dimensions = defaultLocalDimensions
	}
	return &LocalProvider{dimensions: dimensions}
}

// Embed computes a deterministic embedding by hashing tokens into a
// fixed-dimension bag-of-words vector, L2-normalised so dot products
// behave like cosine similarity.
func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, p.dimensions)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vector[int(h.Sum32())%p.dimensions]++
	}

	// L2 normalise; the zero vector stays zero
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector, nil
}

// Dimensions returns the fixed dimensionality of produced vectors
func (p *LocalProvider) Dimensions() int {
	return p.dimensions
}

// tokenize splits text into lowercase alphanumeric tokens
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
