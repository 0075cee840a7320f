package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OutcomeKind classifies the result of a single delivery attempt.
type OutcomeKind int

const (
	// Delivered means the receiver answered with a 2xx status.
	Delivered OutcomeKind = iota
	// TransientFailure covers timeouts, connection errors and 408/429/5xx
	// responses: outcomes a retry can reasonably fix.
	TransientFailure
	// PermanentFailure covers 3xx and 4xx responses (except 408/429):
	// an identical retry will not improve them.
	PermanentFailure
)

// Outcome is the result of exactly one delivery attempt.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int    // 0 when the attempt failed before a response arrived
	Reason     string // short failure description, empty on success
}

// Client performs single webhook delivery attempts. It holds no per-request
// state; all retry decisions live in the policy and the dispatcher.
type Client struct {
	http *http.Client
}

// NewClient wraps the shared HTTP client. Redirects are not followed: a 3xx
// answer is classified, not chased. Per-attempt timeouts come from each
// message, so the client itself carries none.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Client{http: hc}
}

// Deliver issues exactly one POST to the message's target URL with the JSON
// payload as body and the message headers applied. The per-attempt timeout
// is enforced through the request context.
func (c *Client) Deliver(ctx context.Context, msg *Message) Outcome {
	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return Outcome{Kind: PermanentFailure, Reason: fmt.Sprintf("encode payload: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, msg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Kind: PermanentFailure, Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range msg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Kind: TransientFailure, Reason: classifyTransportError(err)}
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return classifyStatus(resp.StatusCode)
}

func classifyStatus(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Outcome{Kind: Delivered, StatusCode: status}
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return Outcome{Kind: TransientFailure, StatusCode: status, Reason: fmt.Sprintf("http status %d", status)}
	default:
		return Outcome{Kind: PermanentFailure, StatusCode: status, Reason: fmt.Sprintf("http status %d", status)}
	}
}

func classifyTransportError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "connection refused"):
		return "connection_refused"
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "dns"):
		return "dns_error"
	default:
		return "network"
	}
}

// metricReason buckets a failed outcome for the retries counter.
func metricReason(out Outcome) string {
	switch {
	case out.StatusCode == 0:
		return out.Reason
	case out.StatusCode >= 500:
		return "http_5xx"
	case out.StatusCode == http.StatusTooManyRequests:
		return "http_429"
	case out.StatusCode == http.StatusRequestTimeout:
		return "http_408"
	case out.StatusCode >= 400:
		return "http_4xx"
	default:
		return "http_3xx"
	}
}
