// Package oracle calls an external text-analysis capability to produce
// a first-pass maturity score proposal from evidence text. The response
// contract is strict: exactly the catalog's domain set, integer levels,
// plus a free-text rationale. Anything else is a typed parse failure —
// the adapter never applies partial scores.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ryumin/agentaudit/internal/catalog"
)

// EvidenceBudget caps how many characters of evidence are forwarded to
// the external capability, bounding cost and latency.
const EvidenceBudget = 6000

// DefaultTimeout bounds a single proposal request.
const DefaultTimeout = 60 * time.Second

// Config holds parameters for the scoring capability.
type Config struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Proposal is the oracle's first-pass assessment.
type Proposal struct {
	Scores    catalog.Scores
	Rationale string
}

// ResponseError reports a response that reached us but violated the
// score contract: malformed JSON, missing domains, non-integer or
// out-of-range levels.
type ResponseError struct {
	Reason string
}

func (e *ResponseError) Error() string {
	return "oracle response invalid: " + e.Reason
}

// UnavailableError reports a transport-level failure: network, auth,
// timeout, rate limiting. Operator-actionable, distinct from a
// malformed response.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle unavailable: %s: %v", e.Reason, e.Err)
	}
	return "oracle unavailable: " + e.Reason
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Client performs one external call per ProposeScores invocation.
// Retry policy, if any, belongs to the caller.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a scoring client. URL, key, and model come from
// configuration; the key is held in memory only and never logged.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

const systemPrompt = `You are an expert AI cybersecurity auditor. Analyze the provided system documentation text and estimate a maturity score (0-5) for these 6 domains:
1. Identity & Access
2. Memory & Data
3. Agent Control
4. Adversarial Defense
5. Orchestration
6. Supply Chain

CRITICAL: Return ONLY a valid JSON object, no markdown fences, no commentary.
Format:
{"scores": {"Identity & Access": <int>, "Memory & Data": <int>, "Agent Control": <int>, "Adversarial Defense": <int>, "Orchestration": <int>, "Supply Chain": <int>}, "reasoning": "Brief summary of reasoning."}`

// ProposeScores sends evidence text to the scoring capability and
// returns the validated proposal. Evidence beyond EvidenceBudget
// characters is truncated before sending.
func (c *Client) ProposeScores(ctx context.Context, evidence string) (Proposal, error) {
	evidence = Truncate(evidence, EvidenceBudget)

	payload := map[string]interface{}{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": "Analyze this security documentation:\n\n" + evidence},
		},
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return Proposal{}, &UnavailableError{Reason: "create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Proposal{}, &UnavailableError{Reason: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Proposal{}, &UnavailableError{Reason: fmt.Sprintf("auth rejected: HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Proposal{}, &UnavailableError{Reason: "rate limited: HTTP 429"}
	case resp.StatusCode != http.StatusOK:
		return Proposal{}, &UnavailableError{Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, trimTo(string(respBody), 200))}
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil || len(completion.Choices) == 0 {
		return Proposal{}, &ResponseError{Reason: "empty completion"}
	}

	return ParseProposal(completion.Choices[0].Message.Content)
}

// proposalMessage is the expected JSON inside the completion content.
type proposalMessage struct {
	Scores    map[string]json.Number `json:"scores"`
	Reasoning string                 `json:"reasoning"`
}

// ParseProposal validates raw completion content against the score
// contract. Markdown fences are tolerated and stripped; everything else
// must match exactly.
func ParseProposal(raw string) (Proposal, error) {
	raw = cleanJSON(raw)

	var msg proposalMessage
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return Proposal{}, &ResponseError{Reason: "cannot parse: " + trimTo(raw, 200)}
	}
	if msg.Scores == nil {
		return Proposal{}, &ResponseError{Reason: "missing scores object"}
	}

	scores := make(catalog.Scores, len(msg.Scores))
	for domain, num := range msg.Scores {
		n, err := num.Int64()
		if err != nil {
			return Proposal{}, &ResponseError{Reason: fmt.Sprintf("non-integer score for %s: %s", domain, num.String())}
		}
		scores[domain] = int(n)
	}

	if err := catalog.ValidateScores(scores); err != nil {
		return Proposal{}, &ResponseError{Reason: err.Error()}
	}

	return Proposal{Scores: scores, Rationale: msg.Reasoning}, nil
}

// Truncate caps s at n characters, rune-safe.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// cleanJSON strips markdown fences and surrounding whitespace.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func trimTo(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
