package inbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ryumin/agentaudit/internal/catalog"
)

func testDirs(t *testing.T) Dirs {
	t.Helper()
	base := t.TempDir()
	return Dirs{
		Inbox:  filepath.Join(base, "inbox"),
		Outbox: filepath.Join(base, "outbox"),
		State:  filepath.Join(base, "state"),
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(testDirs(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func scoresAt(level int) catalog.Scores {
	s := catalog.ZeroScores()
	for d := range s {
		s[d] = level
	}
	return s
}

func pendingProposal(id string) Proposal {
	return Proposal{
		ID:        id,
		Agent:     "Finance-Bot-v1",
		Tier:      "Bounded Autonomy",
		Target:    3.5,
		Status:    StatusPendingReview,
		Proposed:  scoresAt(3),
		Rationale: "looks managed",
		CreatedAt: time.Now().UTC(),
	}
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(pendingProposal("audit-001")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	p, err := s.Get("audit-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Agent != "Finance-Bot-v1" || p.Target != 3.5 {
		t.Errorf("round trip mismatch: %+v", p)
	}
}

func TestPendingSortedByCreation(t *testing.T) {
	s := newTestStore(t)

	older := pendingProposal("audit-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := pendingProposal("audit-new")

	for _, p := range []Proposal{newer, older} {
		if err := s.Put(p); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	pending, err := s.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != "audit-old" || pending[1].ID != "audit-new" {
		t.Errorf("order = %s, %s", pending[0].ID, pending[1].ID)
	}
}

func TestFailedJobsStayVisibleUntilRejected(t *testing.T) {
	s := newTestStore(t)

	failed := pendingProposal("audit-bad")
	failed.Status = StatusFailed
	failed.Proposed = nil
	failed.Error = "oracle unavailable: timeout"
	if err := s.Put(failed); err != nil {
		t.Fatalf("Put: %v", err)
	}

	pending, err := s.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want failed job listed", len(pending))
	}
	if pending[0].Status != StatusFailed || pending[0].Error == "" {
		t.Errorf("listed proposal = %+v", pending[0])
	}

	// Failed jobs cannot be finalized, only rejected.
	if _, err := s.Finalize("audit-bad", scoresAt(3)); err == nil {
		t.Fatal("finalize of a failed job should fail")
	}
	if err := s.Reject("audit-bad"); err != nil {
		t.Fatalf("Reject failed job: %v", err)
	}

	pending, err = s.Pending()
	if err != nil {
		t.Fatalf("Pending after reject: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after reject", len(pending))
	}
}

func TestRejectRefusesFinalized(t *testing.T) {
	s := newTestStore(t)
	done := pendingProposal("audit-done")
	done.Status = StatusFinalized
	if err := s.Put(done); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Reject("audit-done"); err == nil {
		t.Fatal("reject of a finalized proposal should fail")
	}
}

func TestFinalizeMovesProposal(t *testing.T) {
	dirs := testDirs(t)
	s, err := NewStore(dirs)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Put(pendingProposal("audit-001")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	final := scoresAt(4)
	p, err := s.Finalize("audit-001", final)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if p.Status != StatusFinalized {
		t.Errorf("status = %s", p.Status)
	}
	if p.Finalized["Agent Control"] != 4 {
		t.Errorf("finalized scores not applied: %v", p.Finalized)
	}

	// Outbox copy is gone; finalized copy exists.
	if _, err := s.Get("audit-001"); err == nil {
		t.Error("outbox copy should be removed")
	}
	if _, err := os.Stat(filepath.Join(dirs.FinalizedDir(), "audit-001.json")); err != nil {
		t.Errorf("finalized copy missing: %v", err)
	}
}

func TestFinalizeRejectsMalformedScores(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(pendingProposal("audit-001")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	bad := scoresAt(4)
	delete(bad, "Supply Chain")
	if _, err := s.Finalize("audit-001", bad); err == nil {
		t.Fatal("expected error for malformed final scores")
	}

	// Proposal stays pending.
	p, err := s.Get("audit-001")
	if err != nil {
		t.Fatalf("Get after failed finalize: %v", err)
	}
	if p.Status != StatusPendingReview {
		t.Errorf("status = %s, want pending_review", p.Status)
	}
}

func TestFinalizeTwiceFails(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(pendingProposal("audit-001")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Finalize("audit-001", scoresAt(4)); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if _, err := s.Finalize("audit-001", scoresAt(4)); err == nil {
		t.Fatal("second finalize should fail")
	}
}

func TestRejectMovesProposal(t *testing.T) {
	dirs := testDirs(t)
	s, err := NewStore(dirs)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Put(pendingProposal("audit-001")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := s.Reject("audit-001"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dirs.RejectedDir(), "audit-001.json")); err != nil {
		t.Errorf("rejected copy missing: %v", err)
	}
	pending, _ := s.Pending()
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

func TestValidateID(t *testing.T) {
	valid := []string{"audit-001", "a", "A_b-3"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q): %v", id, err)
		}
	}

	invalid := []string{"", "../etc/passwd", "a b", "x/y", "a.b"}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("nope"); err == nil {
		t.Fatal("expected error for unknown ID")
	}
	if _, err := s.Get("../sneaky"); err == nil {
		t.Fatal("expected error for traversal ID")
	}
}

func TestPendingSkipsGarbageFiles(t *testing.T) {
	dirs := testDirs(t)
	s, err := NewStore(dirs)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dirs.Outbox, "junk.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(pendingProposal("audit-001")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	pending, err := s.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
	if !strings.Contains(pending[0].ID, "audit-001") {
		t.Errorf("pending[0] = %+v", pending[0])
	}
}
