package webhook

// Log is the terminal outcome record appended to the log store. Exactly one
// is created per message lifecycle and it is never mutated afterwards.
type Log struct {
	Success    bool    `json:"success"`
	Error      *string `json:"error,omitempty"`
	TeamID     string  `json:"team_id"`
	CrawlID    string  `json:"crawl_id"`
	ScrapeID   *string `json:"scrape_id,omitempty"`
	URL        string  `json:"url"`
	StatusCode *int    `json:"status_code,omitempty"`
	Event      string  `json:"event"`
}

// NewLog builds the terminal log entry for a message from its final attempt
// outcome. crawl_id carries the job id; status_code is absent when the
// failure happened before any HTTP response.
func NewLog(msg *Message, out Outcome) Log {
	entry := Log{
		Success:  out.Kind == Delivered,
		TeamID:   msg.TeamID,
		CrawlID:  msg.JobID,
		ScrapeID: msg.ScrapeID,
		URL:      msg.WebhookURL,
		Event:    msg.Event,
	}
	if out.StatusCode > 0 {
		code := out.StatusCode
		entry.StatusCode = &code
	}
	if out.Kind != Delivered && out.Reason != "" {
		reason := out.Reason
		entry.Error = &reason
	}
	return entry
}
