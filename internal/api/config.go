package api

import (
	"time"

	"github.com/voicedesk/voicedesk/internal/ratelimit"
)

// Config holds API server configuration
type Config struct {
	ListenAddress string        `mapstructure:"listen_address"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	EnableCORS    bool          `mapstructure:"enable_cors"`

	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
	Webhook   WebhookConfig    `mapstructure:"webhook"`
}

// WebhookConfig holds webhook verification settings. An empty Secret with
// AllowUnverified false rejects all webhook traffic; AllowUnverified is a
// non-production escape hatch and is logged loudly when active.
type WebhookConfig struct {
	Secret          string `mapstructure:"secret"`
	AllowUnverified bool   `mapstructure:"allow_unverified"`
}
