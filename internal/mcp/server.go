// Package mcp exposes the audit workflow as MCP tools over stdio, so a
// form, an orchestrator, or a test harness can drive the same state
// machine the CLI does. Sessions are keyed by an explicit session ID
// with independent, non-shared state; the empty ID maps to "default"
// for single-operator use.
package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/session"
)

// Config holds MCP server configuration.
type Config struct {
	Oracle      session.Oracle
	APIKey      string
	JournalPath string
}

// Server wraps the MCP SDK server around a registry of audit sessions.
type Server struct {
	mcpServer *mcpsdk.Server
	oracle    session.Oracle
	apiKey    string
	journal   *journal.Journal

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New creates an MCP server with the audit tools registered.
func New(cfg Config) (*Server, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}

	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		var err error
		jnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	s := &Server{
		oracle:   cfg.Oracle,
		apiKey:   cfg.APIKey,
		journal:  jnl,
		sessions: make(map[string]*session.Session),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "agentaudit",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the journal if configured.
func (s *Server) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}

// sessionFor returns the session for an ID, creating it on first use.
func (s *Server) sessionFor(id string) (string, *session.Session) {
	if id == "" {
		id = "default"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = session.New(s.oracle)
		s.sessions[id] = sess
	}
	return id, sess
}

func (s *Server) record(e journal.Entry) {
	if s.journal != nil {
		_ = s.journal.Record(e)
	}
}

// registerTools adds all audit tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_submit",
		Description: "Start an audit: provide agent name, agency scope, and evidence text. Runs the automated first-pass assessment and moves the session to REVIEW.",
	}, s.handleSubmit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_status",
		Description: "Report an audit session's current phase, agent, scope, and target.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_review",
		Description: "Fetch the proposed scores, the assessment rationale, and the maturity level definitions for human validation.",
	}, s.handleReview)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_back",
		Description: "Abort review and return the session to SETUP, discarding the proposal.",
	}, s.handleBack)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_approve",
		Description: "Approve the review with optional per-domain adjustments, freezing the finalized scores and moving the session to REPORT.",
	}, s.handleApprove)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_report",
		Description: "Produce the compliance verdict: per-domain gaps, average score, approval decision, and the exportable score JSON.",
	}, s.handleReport)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "audit_reset",
		Description: "Reset a session to SETUP for a new assessment, discarding all prior values.",
	}, s.handleReset)
}
