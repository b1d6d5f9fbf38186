package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "test-signing-secret"

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(server *Server, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/calls", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestWebhookValidSignature(t *testing.T) {
	server, repo := newTestServer(testServerOptions{webhookSecret: testWebhookSecret, limiterAllows: true})

	body := []byte(`{"type":"call-started","call":{"id":"call-1","callerNumber":"+15551234567"}}`)
	w := postWebhook(server, body, signBody(testWebhookSecret, body))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["received"])

	// Processing is asynchronous; the record shows up shortly after the response
	assert.Eventually(t, func() bool {
		return repo.size() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWebhookInvalidSignature(t *testing.T) {
	server, repo := newTestServer(testServerOptions{webhookSecret: testWebhookSecret})

	body := []byte(`{"type":"call-started","call":{"id":"call-1"}}`)
	w := postWebhook(server, body, "deadbeef")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, repo.size(), "rejected event must not be processed")
}

func TestWebhookMissingSignature(t *testing.T) {
	server, _ := newTestServer(testServerOptions{webhookSecret: testWebhookSecret})

	body := []byte(`{"type":"call-started","call":{"id":"call-1"}}`)
	w := postWebhook(server, body, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignatureOverExactBytes(t *testing.T) {
	server, _ := newTestServer(testServerOptions{webhookSecret: testWebhookSecret})

	// Signature computed over different bytes than those sent
	sent := []byte(`{"type":"call-started","call":{"id":"call-1"}}`)
	signed := []byte(`{"type":"call-started","call":{"id":"call-2"}}`)
	w := postWebhook(server, sent, signBody(testWebhookSecret, signed))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookMalformedJSON(t *testing.T) {
	server, _ := newTestServer(testServerOptions{webhookSecret: testWebhookSecret})

	body := []byte(`{"type": "call-started",`)
	w := postWebhook(server, body, signBody(testWebhookSecret, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON payload")
}

func TestWebhookNoSecretConfigured(t *testing.T) {
	t.Run("rejects by default", func(t *testing.T) {
		server, _ := newTestServer(testServerOptions{})

		body := []byte(`{"type":"call-started","call":{"id":"call-1"}}`)
		w := postWebhook(server, body, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts when explicitly unverified", func(t *testing.T) {
		server, _ := newTestServer(testServerOptions{allowUnverified: true})

		body := []byte(`{"type":"call-started","call":{"id":"call-1"}}`)
		w := postWebhook(server, body, "")

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
