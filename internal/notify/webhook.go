// Package notify posts final audit verdicts to a configured webhook.
// Notification is best-effort and optional: a down endpoint never
// blocks the audit itself. Payloads carry no credentials.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ryumin/agentaudit/internal/verdict"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

var httpClient = &http.Client{Timeout: requestTimeout}

// WebhookConfig identifies the notification endpoint.
type WebhookConfig struct {
	URL     string
	Headers map[string]string
}

// GapEvent is one lagging domain in the notification payload.
type GapEvent struct {
	Domain string  `json:"domain"`
	Gap    float64 `json:"gap"`
}

// VerdictEvent is the webhook payload for a completed audit.
type VerdictEvent struct {
	Timestamp string     `json:"ts"`
	Agent     string     `json:"agent"`
	Tier      string     `json:"tier"`
	Target    float64    `json:"target"`
	Average   float64    `json:"average"`
	Approved  bool       `json:"approved"`
	Gaps      []GapEvent `json:"gaps,omitempty"`
}

// NewVerdictEvent builds the payload from a verdict.
func NewVerdictEvent(v *verdict.Verdict, agent, tier string) VerdictEvent {
	ev := VerdictEvent{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Agent:     agent,
		Tier:      tier,
		Target:    v.Target,
		Average:   v.Average,
		Approved:  v.Approved,
	}
	for _, d := range v.GapDomains() {
		ev.Gaps = append(ev.Gaps, GapEvent{Domain: d.Domain, Gap: d.Gap})
	}
	return ev
}

// Send posts a verdict event to the webhook with retry on 5xx.
// 4xx responses fail immediately.
func Send(cfg WebhookConfig, event VerdictEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("webhook rejected: HTTP %d", resp.StatusCode)
		}
		// 5xx — retry
		lastErr = fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", maxRetries, lastErr)
}
