// Package llm defines the completion provider interface and its
// OpenAI-compatible implementation.
package llm

import "context"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message in a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates text from a message sequence. The first element may
// be a system message.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config holds completion provider configuration
type Config struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}
