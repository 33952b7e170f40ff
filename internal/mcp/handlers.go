package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ryumin/agentaudit/internal/catalog"
	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/report"
	"github.com/ryumin/agentaudit/internal/scope"
	"github.com/ryumin/agentaudit/internal/session"
)

// --- Input/Output types ---

// SubmitInput defines parameters for the audit_submit tool.
type SubmitInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"audit session identifier, defaults to 'default'"`
	Agent     string `json:"agent" jsonschema:"name of the agent under audit"`
	Scope     string `json:"scope" jsonschema:"agency scope tier (Read-Only, Human-in-the-Loop, Bounded Autonomy, Full Agency)"`
	Evidence  string `json:"evidence" jsonschema:"system documentation text to assess"`
}

// SubmitOutput carries the first-pass proposal.
type SubmitOutput struct {
	SessionID string         `json:"session_id"`
	Phase     string         `json:"phase"`
	Target    float64        `json:"target"`
	Proposed  catalog.Scores `json:"proposed"`
	Rationale string         `json:"rationale"`
}

// SessionInput selects a session for tools that need nothing else.
type SessionInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"audit session identifier, defaults to 'default'"`
}

// StatusOutput reports the session's current position in the workflow.
type StatusOutput struct {
	SessionID string  `json:"session_id"`
	Phase     string  `json:"phase"`
	Agent     string  `json:"agent,omitempty"`
	Tier      string  `json:"tier,omitempty"`
	Target    float64 `json:"target,omitempty"`
}

// ReviewOutput carries everything the human reviewer needs.
type ReviewOutput struct {
	SessionID   string         `json:"session_id"`
	Proposed    catalog.Scores `json:"proposed"`
	Rationale   string         `json:"rationale"`
	Target      float64        `json:"target"`
	Definitions map[int]string `json:"definitions"`
}

// ApproveInput defines parameters for the audit_approve tool.
type ApproveInput struct {
	SessionID   string         `json:"session_id,omitempty" jsonschema:"audit session identifier, defaults to 'default'"`
	Adjustments catalog.Scores `json:"adjustments,omitempty" jsonschema:"per-domain score overrides applied on top of the proposal"`
}

// ApproveOutput confirms the finalized scores.
type ApproveOutput struct {
	SessionID string         `json:"session_id"`
	Phase     string         `json:"phase"`
	Finalized catalog.Scores `json:"finalized"`
}

// ReportOutput is the full report payload.
type ReportOutput struct {
	SessionID  string             `json:"session_id"`
	Agent      string             `json:"agent"`
	Tier       string             `json:"tier"`
	Target     float64            `json:"target"`
	Average    float64            `json:"average"`
	Approved   bool               `json:"approved"`
	Domains    []DomainReport     `json:"domains"`
	Radar      report.RadarSeries `json:"radar"`
	ExportJSON string             `json:"export_json"`
}

// DomainReport is one domain's line in the report payload.
type DomainReport struct {
	Domain    string  `json:"domain"`
	Score     int     `json:"score"`
	Gap       float64 `json:"gap"`
	Compliant bool    `json:"compliant"`
}

// ResetOutput confirms the reset.
type ResetOutput struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
}

// --- Handlers ---

func (s *Server) handleSubmit(ctx context.Context, req *mcpsdk.CallToolRequest, input SubmitInput) (*mcpsdk.CallToolResult, SubmitOutput, error) {
	id, sess := s.sessionFor(input.SessionID)

	tier, perr := scope.Parse(input.Scope)
	if perr != nil && input.Scope != "" {
		// Unknown (not just unselected) scope: name it for the caller.
		return nil, SubmitOutput{}, perr
	}
	err := sess.Submit(ctx, session.SubmitInput{
		AgentName: input.Agent,
		Tier:      tier,
		APIKey:    s.apiKey,
		Evidence:  input.Evidence,
	})
	if err != nil {
		return nil, SubmitOutput{}, err
	}

	s.record(journal.Entry{
		Session: id,
		Agent:   input.Agent,
		Tier:    string(tier),
		From:    string(session.PhaseSetup),
		To:      string(session.PhaseReview),
		Detail:  "first-pass assessment accepted",
	})

	return nil, SubmitOutput{
		SessionID: id,
		Phase:     string(sess.Phase()),
		Target:    sess.TargetScore(),
		Proposed:  sess.Proposed(),
		Rationale: sess.Rationale(),
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input SessionInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	id, sess := s.sessionFor(input.SessionID)
	return nil, StatusOutput{
		SessionID: id,
		Phase:     string(sess.Phase()),
		Agent:     sess.AgentName(),
		Tier:      tierLabel(sess.Tier()),
		Target:    sess.TargetScore(),
	}, nil
}

func (s *Server) handleReview(ctx context.Context, req *mcpsdk.CallToolRequest, input SessionInput) (*mcpsdk.CallToolResult, ReviewOutput, error) {
	id, sess := s.sessionFor(input.SessionID)
	if sess.Phase() != session.PhaseReview {
		return nil, ReviewOutput{}, &session.PhaseError{Op: "review", Have: sess.Phase(), Want: session.PhaseReview}
	}

	defs := make(map[int]string)
	for lvl := catalog.MinLevel; lvl <= catalog.MaxLevel; lvl++ {
		defs[lvl] = catalog.LevelDefinition(lvl)
	}

	return nil, ReviewOutput{
		SessionID:   id,
		Proposed:    sess.Proposed(),
		Rationale:   sess.Rationale(),
		Target:      sess.TargetScore(),
		Definitions: defs,
	}, nil
}

func (s *Server) handleBack(ctx context.Context, req *mcpsdk.CallToolRequest, input SessionInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	id, sess := s.sessionFor(input.SessionID)
	if err := sess.Back(); err != nil {
		return nil, StatusOutput{}, err
	}
	s.record(journal.Entry{
		Session: id,
		Agent:   sess.AgentName(),
		From:    string(session.PhaseReview),
		To:      string(session.PhaseSetup),
		Detail:  "review aborted",
	})
	return nil, StatusOutput{SessionID: id, Phase: string(sess.Phase())}, nil
}

func (s *Server) handleApprove(ctx context.Context, req *mcpsdk.CallToolRequest, input ApproveInput) (*mcpsdk.CallToolResult, ApproveOutput, error) {
	id, sess := s.sessionFor(input.SessionID)

	final := sess.Proposed()
	for domain, score := range input.Adjustments {
		final[domain] = score
	}

	if err := sess.Approve(final); err != nil {
		return nil, ApproveOutput{}, err
	}

	s.record(journal.Entry{
		Session: id,
		Agent:   sess.AgentName(),
		Tier:    tierLabel(sess.Tier()),
		From:    string(session.PhaseReview),
		To:      string(session.PhaseReport),
		Detail:  "scores finalized by reviewer",
	})

	return nil, ApproveOutput{
		SessionID: id,
		Phase:     string(sess.Phase()),
		Finalized: sess.Finalized(),
	}, nil
}

func (s *Server) handleReport(ctx context.Context, req *mcpsdk.CallToolRequest, input SessionInput) (*mcpsdk.CallToolResult, ReportOutput, error) {
	id, sess := s.sessionFor(input.SessionID)

	v, err := sess.Verdict()
	if err != nil {
		return nil, ReportOutput{}, err
	}

	export, err := report.ScoresJSON(sess.Finalized())
	if err != nil {
		return nil, ReportOutput{}, err
	}

	out := ReportOutput{
		SessionID:  id,
		Agent:      sess.AgentName(),
		Tier:       tierLabel(sess.Tier()),
		Target:     v.Target,
		Average:    v.Average,
		Approved:   v.Approved,
		Radar:      report.Radar(v),
		ExportJSON: string(export),
	}
	for _, d := range v.Domains {
		out.Domains = append(out.Domains, DomainReport{
			Domain:    d.Domain,
			Score:     d.Score,
			Gap:       d.Gap,
			Compliant: d.Compliant,
		})
	}
	return nil, out, nil
}

func (s *Server) handleReset(ctx context.Context, req *mcpsdk.CallToolRequest, input SessionInput) (*mcpsdk.CallToolResult, ResetOutput, error) {
	id, sess := s.sessionFor(input.SessionID)
	prior := sess.Phase()
	sess.Reset()
	s.record(journal.Entry{
		Session: id,
		From:    string(prior),
		To:      string(session.PhaseSetup),
		Detail:  "new assessment",
	})
	return nil, ResetOutput{SessionID: id, Phase: string(sess.Phase())}, nil
}

// tierLabel renders the tier for output, hiding the sentinel.
func tierLabel(t scope.Tier) string {
	if t == scope.TierUnselected {
		return ""
	}
	return string(t)
}
