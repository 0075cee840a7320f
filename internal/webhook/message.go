// Package webhook implements the delivery pipeline: decoding queue
// messages, driving HTTP delivery attempts through the retry policy and
// recording terminal outcomes.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedMessage marks queue messages that are structurally invalid.
// They are rejected without retry: a decode failure is a defect in the
// producer, not a delivery failure.
var ErrMalformedMessage = errors.New("malformed webhook message")

// Payload is the callback body posted to the tenant URL.
type Payload struct {
	Success   bool              `json:"success"`
	Type      string            `json:"type"`
	WebhookID string            `json:"webhookId"`
	ID        *string           `json:"id,omitempty"`
	JobID     *string           `json:"jobId,omitempty"`
	Data      []json.RawMessage `json:"data"`
	Error     *string           `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Message is one delivery request as it arrives on the queue.
type Message struct {
	WebhookURL string            `json:"webhook_url"`
	Payload    Payload           `json:"payload"`
	Headers    map[string]string `json:"headers"`
	TeamID     string            `json:"team_id"`
	JobID      string            `json:"job_id"`
	ScrapeID   *string           `json:"scrape_id,omitempty"`
	Event      string            `json:"event"`
	TimeoutMS  int64             `json:"timeout_ms"`
	// RetryCount is mutated only by the dispatcher between attempts.
	RetryCount int `json:"retry_count"`
}

// Timeout is the hard upper bound on a single delivery attempt.
func (m *Message) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

// DecodeMessage parses and validates a raw queue payload. Any failure wraps
// ErrMalformedMessage.
func DecodeMessage(body []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.WebhookURL == "" {
		return nil, fmt.Errorf("%w: missing webhook_url", ErrMalformedMessage)
	}
	if m.TeamID == "" {
		return nil, fmt.Errorf("%w: missing team_id", ErrMalformedMessage)
	}
	if m.JobID == "" {
		return nil, fmt.Errorf("%w: missing job_id", ErrMalformedMessage)
	}
	if m.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedMessage)
	}
	if m.TimeoutMS <= 0 {
		return nil, fmt.Errorf("%w: timeout_ms must be a positive integer", ErrMalformedMessage)
	}
	if m.Payload.Type == "" {
		return nil, fmt.Errorf("%w: missing payload.type", ErrMalformedMessage)
	}
	if m.Payload.WebhookID == "" {
		return nil, fmt.Errorf("%w: missing payload.webhookId", ErrMalformedMessage)
	}
	if m.RetryCount < 0 {
		return nil, fmt.Errorf("%w: negative retry_count", ErrMalformedMessage)
	}
	return &m, nil
}
