// Package webhook posts signed JSON events to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SignatureHeader carries "sha256=<hex HMAC of the body>" when a secret is set.
const SignatureHeader = "X-Ecocal-Signature"

// DefaultRetryDelays is the wait before each delivery attempt.
var DefaultRetryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"` // e.g. "calendar.gathered"
	BatchID   string `json:"batch_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Client delivers events to one endpoint.
type Client struct {
	URL    string
	Secret string

	// RetryDelays overrides DefaultRetryDelays when non-nil.
	RetryDelays []time.Duration

	HTTP *http.Client
}

// NewClient creates a Client with a 10s per-attempt timeout.
func NewClient(url, secret string) *Client {
	return &Client{
		URL:    url,
		Secret: secret,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver posts event, retrying per the retry schedule until one attempt
// succeeds, the schedule runs out or ctx is done.
func (c *Client) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays
	}

	var errs []error
	for attempt, delay := range delays {
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return errors.Join(append(errs, ctx.Err())...)
			case <-t.C:
			}
		}

		err := c.post(ctx, body)
		if err == nil {
			slog.Info("webhook delivered",
				"url", c.URL,
				"event", event.Type,
				"batch_id", event.BatchID,
				"attempt", attempt+1,
			)
			return nil
		}
		errs = append(errs, err)
		slog.Warn("webhook delivery failed",
			"url", c.URL,
			"event", event.Type,
			"batch_id", event.BatchID,
			"attempt", attempt+1,
			"error", err,
		)
	}

	slog.Error("webhook delivery exhausted all retries",
		"url", c.URL,
		"event", event.Type,
		"batch_id", event.BatchID,
	)
	return errors.Join(errs...)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ecocal-Webhook/1.0")
	if c.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.Secret, body))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
