package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers a completion event payload to the notification
// collaborator. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// WebhookSender posts event payloads to a configured HTTPS endpoint, signing
// each request with an HMAC-SHA256 of the body so the receiver can verify
// origin and integrity.
type WebhookSender struct {
	url    string
	secret []byte
	client *http.Client
}

// NewWebhookSender creates a sender targeting url. secret may be empty, in
// which case requests go unsigned.
func NewWebhookSender(url, secret string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Sender = (*WebhookSender)(nil)

// Send posts the payload. Any non-2xx response is an error so the dispatcher
// schedules a retry.
func (s *WebhookSender) Send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(s.secret) > 0 {
		req.Header.Set("X-Signature", s.sign(payload))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSender) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
