package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	logStorePath    = "/rest/v1/webhook_logs"
	logStoreTimeout = 10 * time.Second
)

// LogStore appends terminal delivery outcomes to the external log service.
type LogStore struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewLogStore builds a client for the log service at baseURL authenticated
// with the service token.
func NewLogStore(hc *http.Client, baseURL, token string) *LogStore {
	if hc == nil {
		hc = &http.Client{Timeout: logStoreTimeout}
	}
	return &LogStore{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Insert appends one log entry. Callers treat failures as best-effort: a
// failed insert never blocks acknowledgment of the queue message.
func (s *LogStore) Insert(ctx context.Context, entry Log) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+logStorePath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build log request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.token)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("insert log entry: status %d", resp.StatusCode)
	}
	return nil
}
