// Package inbox implements headless evidence intake. Audit jobs arrive
// as JSON files in the inbox directory, are run through the automated
// first-pass assessment one at a time, and land in the outbox as
// proposals pending human review. Review itself never happens here:
// finalizing a proposal is always an explicit operator action.
package inbox

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ryumin/agentaudit/internal/catalog"
)

// Job is an audit request dropped into the inbox.
type Job struct {
	Agent    string `json:"agent"`
	Scope    string `json:"scope"`
	Evidence string `json:"evidence"`
}

// Proposal status values.
const (
	StatusPendingReview = "pending_review"
	StatusFailed        = "failed"
	StatusFinalized     = "finalized"
	StatusRejected      = "rejected"
)

// Proposal is written to the outbox after a job is processed.
type Proposal struct {
	ID        string         `json:"id"`
	Agent     string         `json:"agent"`
	Tier      string         `json:"tier"`
	Target    float64        `json:"target"`
	Status    string         `json:"status"`
	Proposed  catalog.Scores `json:"proposed,omitempty"`
	Finalized catalog.Scores `json:"finalized,omitempty"`
	Rationale string         `json:"rationale,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// validID matches alphanumeric characters, dashes, and underscores only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID rejects proposal IDs that could cause path traversal.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("proposal ID must not be empty")
	}
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid proposal ID %q: only alphanumeric, dash, and underscore are allowed", id)
	}
	return nil
}
