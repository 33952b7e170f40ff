package inbox

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ryumin/agentaudit/internal/catalog"
	"github.com/ryumin/agentaudit/internal/oracle"
)

type stubOracle struct {
	proposal oracle.Proposal
	err      error
	calls    int
}

func (s *stubOracle) ProposeScores(ctx context.Context, evidence string) (oracle.Proposal, error) {
	s.calls++
	if s.err != nil {
		return oracle.Proposal{}, s.err
	}
	return s.proposal, nil
}

func writeJob(t *testing.T, dir, id string, job Job) string {
	t.Helper()
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessorWritesPendingProposal(t *testing.T) {
	dirs := testDirs(t)
	store, err := NewStore(dirs)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	so := &stubOracle{proposal: oracle.Proposal{Scores: scoresAt(3), Rationale: "defined controls"}}
	p := NewProcessor(store, so, "sk-test", nil)

	path := writeJob(t, dirs.Inbox, "audit-001", Job{
		Agent:    "Finance-Bot-v1",
		Scope:    "Bounded Autonomy",
		Evidence: "architecture doc",
	})

	if err := p.Process(context.Background(), path); err != nil {
		t.Fatalf("Process: %v", err)
	}

	prop, err := store.Get("audit-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if prop.Status != StatusPendingReview {
		t.Errorf("status = %s", prop.Status)
	}
	if prop.Target != 3.5 {
		t.Errorf("target = %v, want 3.5", prop.Target)
	}
	if prop.Rationale != "defined controls" {
		t.Errorf("rationale = %q", prop.Rationale)
	}
	if err := catalog.ValidateScores(prop.Proposed); err != nil {
		t.Errorf("proposed scores invalid: %v", err)
	}

	// Job file is consumed.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("job file should be removed after processing")
	}
}

func TestProcessorUnknownScope(t *testing.T) {
	dirs := testDirs(t)
	store, _ := NewStore(dirs)
	so := &stubOracle{proposal: oracle.Proposal{Scores: scoresAt(3)}}
	p := NewProcessor(store, so, "sk-test", nil)

	path := writeJob(t, dirs.Inbox, "audit-002", Job{
		Agent:    "bot",
		Scope:    "Unlimited Power",
		Evidence: "doc",
	})

	if err := p.Process(context.Background(), path); err == nil {
		t.Fatal("expected error for unknown scope")
	}
	if so.calls != 0 {
		t.Error("oracle must not be called for an invalid scope")
	}

	prop, err := store.Get("audit-002")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if prop.Status != StatusFailed {
		t.Errorf("status = %s, want failed", prop.Status)
	}
}

func TestProcessorOracleFailure(t *testing.T) {
	dirs := testDirs(t)
	store, _ := NewStore(dirs)
	so := &stubOracle{err: &oracle.UnavailableError{Reason: "rate limited"}}
	p := NewProcessor(store, so, "sk-test", nil)

	path := writeJob(t, dirs.Inbox, "audit-003", Job{
		Agent:    "bot",
		Scope:    "Read-Only",
		Evidence: "doc",
	})

	if err := p.Process(context.Background(), path); err == nil {
		t.Fatal("expected error on oracle failure")
	}

	prop, err := store.Get("audit-003")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if prop.Status != StatusFailed {
		t.Errorf("status = %s, want failed", prop.Status)
	}
	if prop.Error == "" {
		t.Error("failed proposal should carry the error message")
	}
}

func TestProcessorInvalidJSON(t *testing.T) {
	dirs := testDirs(t)
	store, _ := NewStore(dirs)
	p := NewProcessor(store, &stubOracle{}, "sk-test", nil)

	path := filepath.Join(dirs.Inbox, "audit-004.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := p.Process(context.Background(), path); err == nil {
		t.Fatal("expected error for unparseable job")
	}
	prop, err := store.Get("audit-004")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if prop.Status != StatusFailed {
		t.Errorf("status = %s, want failed", prop.Status)
	}
}

func TestProcessorRejectsTraversalID(t *testing.T) {
	dirs := testDirs(t)
	store, _ := NewStore(dirs)
	p := NewProcessor(store, &stubOracle{}, "sk-test", nil)

	path := filepath.Join(dirs.Inbox, "bad name.json")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := p.Process(context.Background(), path); err == nil {
		t.Fatal("expected error for invalid job ID")
	}
}
