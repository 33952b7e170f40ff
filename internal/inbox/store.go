package inbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ryumin/agentaudit/internal/catalog"
)

// dirPerm is the permission for store-managed directories.
const dirPerm = 0750

// Dirs holds the intake directory layout.
type Dirs struct {
	Inbox  string // incoming job files
	Outbox string // proposals pending review
	State  string // state/{finalized,rejected}
}

// DefaultDirs returns the intake layout under the user's home.
func DefaultDirs() Dirs {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	base := filepath.Join(home, ".agentaudit")
	return Dirs{
		Inbox:  filepath.Join(base, "inbox"),
		Outbox: filepath.Join(base, "outbox"),
		State:  filepath.Join(base, "state"),
	}
}

// FinalizedDir returns the path to the finalized subdirectory.
func (d Dirs) FinalizedDir() string {
	return filepath.Join(d.State, "finalized")
}

// RejectedDir returns the path to the rejected subdirectory.
func (d Dirs) RejectedDir() string {
	return filepath.Join(d.State, "rejected")
}

// EnsureDirs creates all required directories. Idempotent.
func EnsureDirs(d Dirs) error {
	for _, dir := range []string{d.Inbox, d.Outbox, d.State, d.FinalizedDir(), d.RejectedDir()} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Store manages proposal files across the outbox and state directories.
type Store struct {
	dirs Dirs
	mu   sync.Mutex
}

// NewStore creates a proposal store over the given directory layout.
func NewStore(dirs Dirs) (*Store, error) {
	if err := EnsureDirs(dirs); err != nil {
		return nil, err
	}
	return &Store{dirs: dirs}, nil
}

// Put writes a proposal into the outbox atomically.
func (s *Store) Put(p Proposal) error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.outboxPath(p.ID), p)
}

// Get reads a proposal from the outbox by ID.
func (s *Store) Get(id string) (*Proposal, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readProposal(s.outboxPath(id))
}

// Pending lists outbox proposals awaiting operator action, sorted by
// creation time. This covers pending_review proposals and failed jobs;
// failed jobs stay visible until rejected.
func (s *Store) Pending() ([]Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dirs.Outbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var pending []Proposal
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		p, err := readProposal(filepath.Join(s.dirs.Outbox, e.Name()))
		if err != nil {
			continue
		}
		if p.Status != StatusPendingReview && p.Status != StatusFailed {
			continue
		}
		pending = append(pending, *p)
	}
	sort.Slice(pending, func(i, k int) bool {
		return pending[i].CreatedAt.Before(pending[k].CreatedAt)
	})
	return pending, nil
}

// Finalize applies the reviewer's score set to a pending proposal and
// moves it from the outbox to state/finalized. The final set must cover
// exactly the catalog's domains in range.
func (s *Store) Finalize(id string, final catalog.Scores) (*Proposal, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := catalog.ValidateScores(final); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := readProposal(s.outboxPath(id))
	if err != nil {
		return nil, fmt.Errorf("proposal %q not found: %w", id, err)
	}
	if p.Status != StatusPendingReview {
		return nil, fmt.Errorf("proposal %q is %s, not pending review", id, p.Status)
	}

	p.Status = StatusFinalized
	p.Finalized = final.Clone()

	dst := filepath.Join(s.dirs.FinalizedDir(), id+".json")
	if err := writeAtomic(dst, *p); err != nil {
		return nil, err
	}
	if err := os.Remove(s.outboxPath(id)); err != nil {
		return nil, fmt.Errorf("remove outbox copy: %w", err)
	}
	return p, nil
}

// Reject discards a pending or failed proposal, moving it to
// state/rejected. Rejecting is the only way to clear a failed job.
func (s *Store) Reject(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := readProposal(s.outboxPath(id))
	if err != nil {
		return fmt.Errorf("proposal %q not found: %w", id, err)
	}
	if p.Status != StatusPendingReview && p.Status != StatusFailed {
		return fmt.Errorf("proposal %q is %s, cannot reject", id, p.Status)
	}

	p.Status = StatusRejected
	dst := filepath.Join(s.dirs.RejectedDir(), id+".json")
	if err := writeAtomic(dst, *p); err != nil {
		return err
	}
	if err := os.Remove(s.outboxPath(id)); err != nil {
		return fmt.Errorf("remove outbox copy: %w", err)
	}
	return nil
}

func (s *Store) outboxPath(id string) string {
	return filepath.Join(s.dirs.Outbox, id+".json")
}

func readProposal(path string) (*Proposal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

// writeAtomic writes JSON via a temp file and rename so readers never
// observe a partial proposal.
func writeAtomic(path string, p Proposal) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write proposal: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename proposal: %w", err)
	}
	return nil
}
