package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voicedesk/voicedesk/internal/calls"
)

// signatureHeader carries hex(HMAC-SHA256(secret, rawBody))
const signatureHeader = "x-vapi-signature"

// webhookPayloadSizeLimit limits webhook payload size to prevent DOS attacks
const webhookPayloadSizeLimit = 10 * 1024 * 1024 // 10MB

// callWebhookHandler receives call lifecycle events. The signature is
// verified over the raw body before any parsing; the response is written
// before processing starts, so the telephony provider is never made to
// wait on summarization or notification.
func (s *Server) callWebhookHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookPayloadSizeLimit)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if !s.verifyWebhookSignature(c, payload) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event calls.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	// Fire-and-forget: processing outcome never reaches this response
	processor := s.deps.Processor
	logger := s.logger
	s.deps.Pool.Enqueue(func(ctx context.Context) {
		if err := processor.HandleEvent(ctx, event); err != nil {
			logger.Error("Call event processing failed", map[string]interface{}{
				"call_id": event.Call.ID,
				"type":    event.Type,
				"error":   err.Error(),
			})
		}
	})

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// verifyWebhookSignature checks the HMAC signature over the raw body.
// With no secret configured, traffic is rejected unless allow_unverified
// was set explicitly; that bypass is logged on every request.
func (s *Server) verifyWebhookSignature(c *gin.Context, payload []byte) bool {
	if s.config.Webhook.Secret == "" {
		if s.config.Webhook.AllowUnverified {
			s.logger.Warn("Accepting UNVERIFIED webhook: no secret configured and allow_unverified is set", map[string]interface{}{
				"client_ip": c.ClientIP(),
			})
			return true
		}
		s.logger.Error("Rejecting webhook: no signing secret configured", map[string]interface{}{
			"client_ip": c.ClientIP(),
		})
		return false
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.config.Webhook.Secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison to prevent timing attacks
	return hmac.Equal([]byte(signature), []byte(expected))
}
