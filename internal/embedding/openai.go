package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIProvider implements Provider against an OpenAI-compatible
// embeddings API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	endpoint   string
	dimensions int
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = 1536
	}

	return &OpenAIProvider{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		dimensions: dimensions,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// embeddingRequest is the OpenAI embeddings request body
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI embeddings response body
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed computes the embedding vector for the given text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Model:      p.model,
		Input:      []string{text},
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embeddings API returned no data")
	}

	vector := parsed.Data[0].Embedding
	if len(vector) != p.dimensions {
		return nil, fmt.Errorf("embeddings API returned %d dimensions, expected %d", len(vector), p.dimensions)
	}

	return vector, nil
}

// Dimensions returns the fixed dimensionality of produced vectors
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}
