// Package webhook forwards run events to an HTTP endpoint, in order and
// signed.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/use-agent/jobscout/engine"
)

// SignatureHeader carries "sha256=<hex>" of the request body.
const SignatureHeader = "X-Jobscout-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"` // data, metrics, invalid-session, error, end
	RunID     string      `json:"run_id,omitempty"`
	Query     string      `json:"query,omitempty"`
	Location  string      `json:"location,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// FromEngine converts an engine event into its webhook payload.
func FromEngine(e engine.Event) *Event {
	ev := &Event{
		Type:      string(e.Type),
		RunID:     e.RunID,
		Query:     e.Query,
		Location:  e.Location,
		Timestamp: time.Now().UnixMilli(),
	}
	switch {
	case e.Job != nil:
		ev.Data = e.Job
	case e.Metrics != nil:
		ev.Data = e.Metrics
	case e.Err != nil:
		ev.Data = e.Detail()
	}
	return ev
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Jobscout-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
