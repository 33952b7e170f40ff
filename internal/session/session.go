// Package session implements the audit workflow state machine. One
// session walks an operator through SETUP (agent profile, scope,
// evidence), REVIEW (human validation of the oracle's proposal), and
// REPORT (frozen scores, verdict on demand). Every failure leaves the
// session in its current phase with its last-good state intact.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ryumin/agentaudit/internal/catalog"
	"github.com/ryumin/agentaudit/internal/oracle"
	"github.com/ryumin/agentaudit/internal/scope"
	"github.com/ryumin/agentaudit/internal/verdict"
)

// Phase is the workflow state.
type Phase string

const (
	PhaseSetup  Phase = "SETUP"
	PhaseReview Phase = "REVIEW"
	PhaseReport Phase = "REPORT"
)

// Oracle is the scoring capability the session consults on submit.
// The HTTP client satisfies it in production; tests supply fakes.
type Oracle interface {
	ProposeScores(ctx context.Context, evidence string) (oracle.Proposal, error)
}

// ErrSubmitInFlight rejects a second submit while one is outstanding.
var ErrSubmitInFlight = errors.New("a submit is already in flight for this session")

// ErrSessionReset reports that the session was reset while a submit was
// waiting on the oracle; the stale result is discarded.
var ErrSessionReset = errors.New("session was reset during submit")

// PhaseError reports an operation invoked in the wrong phase.
type PhaseError struct {
	Op   string
	Have Phase
	Want Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s requires phase %s, session is in %s", e.Op, e.Want, e.Have)
}

// ValidationError lists the submit preconditions that failed. No oracle
// call is made when any precondition fails.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required input: " + strings.Join(e.Missing, ", ")
}

// SubmitInput is everything SETUP collects from the operator.
type SubmitInput struct {
	AgentName string
	Tier      scope.Tier
	APIKey    string
	Evidence  string
}

// Session is the single mutable workflow state for one audit. It owns
// all score maps and rationale text for the duration of the audit.
type Session struct {
	mu       sync.Mutex
	inFlight bool
	gen      uint64 // bumped on reset; stale submits check it

	oracle Oracle

	phase       Phase
	agentName   string
	tier        scope.Tier
	targetScore float64
	proposed    catalog.Scores
	rationale   string
	finalized   catalog.Scores
}

// New creates a session in SETUP with all proposed scores at zero.
func New(o Oracle) *Session {
	s := &Session{oracle: o}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.gen++
	s.phase = PhaseSetup
	s.agentName = ""
	s.tier = scope.TierUnselected
	s.targetScore = 0
	s.proposed = catalog.ZeroScores()
	s.rationale = ""
	s.finalized = nil
}

// Phase returns the current workflow phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// AgentName returns the agent under audit.
func (s *Session) AgentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentName
}

// Tier returns the selected agency scope tier.
func (s *Session) Tier() scope.Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// TargetScore returns the compliance target derived from the tier.
// Zero until a submit succeeds.
func (s *Session) TargetScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetScore
}

// Proposed returns a copy of the oracle's proposed scores.
func (s *Session) Proposed() catalog.Scores {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposed.Clone()
}

// Rationale returns the oracle's free-text reasoning.
func (s *Session) Rationale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rationale
}

// Finalized returns a copy of the reviewer-approved scores, or nil
// before REPORT.
func (s *Session) Finalized() catalog.Scores {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized.Clone()
}

// validateSubmit collects every failed precondition before touching the
// oracle.
func validateSubmit(in SubmitInput) error {
	var missing []string
	if _, err := scope.Target(in.Tier); err != nil {
		missing = append(missing, "agency scope")
	}
	if strings.TrimSpace(in.APIKey) == "" {
		missing = append(missing, "API key")
	}
	if strings.TrimSpace(in.Evidence) == "" {
		missing = append(missing, "evidence")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Submit drives SETUP -> REVIEW: validates preconditions, consults the
// oracle, and on success stores the proposal, rationale, and target.
// On any failure the session stays in SETUP unchanged. A second submit
// while one is outstanding fails with ErrSubmitInFlight; a Reset issued
// while one is outstanding discards its result (ErrSessionReset).
func (s *Session) Submit(ctx context.Context, in SubmitInput) error {
	s.mu.Lock()
	if s.phase != PhaseSetup {
		s.mu.Unlock()
		return &PhaseError{Op: "submit", Have: s.phase, Want: PhaseSetup}
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	if err := validateSubmit(in); err != nil {
		s.mu.Unlock()
		return err
	}
	target, err := scope.Target(in.Tier)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.inFlight = true
	gen := s.gen
	s.mu.Unlock()

	// Oracle call happens outside the lock: it may block for the full
	// request timeout, and reads must stay available meanwhile.
	proposal, oerr := s.oracle.ProposeScores(ctx, in.Evidence)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if oerr != nil {
		return oerr
	}
	// A reset during the oracle call wins; the result is stale.
	if s.gen != gen {
		return ErrSessionReset
	}

	s.agentName = in.AgentName
	s.tier = in.Tier
	s.targetScore = target
	s.proposed = proposal.Scores.Clone()
	s.rationale = proposal.Rationale
	s.phase = PhaseReview
	return nil
}

// Back drives REVIEW -> SETUP, discarding the proposal and rationale.
// Agent name and tier are retained for resubmission; they never reach
// REPORT without another successful submit and approval.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReview {
		return &PhaseError{Op: "back", Have: s.phase, Want: PhaseReview}
	}
	s.proposed = catalog.ZeroScores()
	s.rationale = ""
	s.targetScore = 0
	s.phase = PhaseSetup
	return nil
}

// Approve drives REVIEW -> REPORT with the reviewer-adjusted scores.
// The adjusted set must cover exactly the catalog's domains with levels
// in range; it is then frozen as the finalized scores.
func (s *Session) Approve(adjusted catalog.Scores) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReview {
		return &PhaseError{Op: "approve", Have: s.phase, Want: PhaseReview}
	}
	if err := catalog.ValidateScores(adjusted); err != nil {
		return err
	}
	s.finalized = adjusted.Clone()
	s.phase = PhaseReport
	return nil
}

// Reset returns the session to its initial SETUP state from any phase,
// discarding all prior values.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Verdict evaluates the finalized scores against the target. Only valid
// in REPORT.
func (s *Session) Verdict() (*verdict.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReport {
		return nil, &PhaseError{Op: "verdict", Have: s.phase, Want: PhaseReport}
	}
	return verdict.Evaluate(s.finalized, s.targetScore)
}
