package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/scope"
	"github.com/ryumin/agentaudit/internal/session"
)

// Processor runs one inbox job at a time through the automated
// first-pass assessment. Each job gets its own session; proposals land
// in the store pending human review.
type Processor struct {
	store   *Store
	oracle  session.Oracle
	apiKey  string
	journal *journal.Journal // optional
}

// NewProcessor creates a processor over the given store and oracle.
func NewProcessor(store *Store, o session.Oracle, apiKey string, j *journal.Journal) *Processor {
	return &Processor{store: store, oracle: o, apiKey: apiKey, journal: j}
}

// Process handles a single inbox job file: parse, assess, write the
// proposal, and remove the job file. A failed job still produces a
// proposal record (status failed) so the operator sees what happened.
func (p *Processor) Process(ctx context.Context, path string) error {
	id := strings.TrimSuffix(filepath.Base(path), ".json")
	if err := ValidateID(id); err != nil {
		return err
	}

	prop := Proposal{
		ID:        id,
		Status:    StatusFailed,
		CreatedAt: time.Now().UTC(),
	}

	job, err := readJob(path)
	if err != nil {
		prop.Error = err.Error()
		return p.finish(path, prop)
	}
	prop.Agent = job.Agent

	tier, err := scope.Parse(job.Scope)
	if err != nil {
		prop.Error = err.Error()
		return p.finish(path, prop)
	}
	prop.Tier = string(tier)

	sess := session.New(p.oracle)
	err = sess.Submit(ctx, session.SubmitInput{
		AgentName: job.Agent,
		Tier:      tier,
		APIKey:    p.apiKey,
		Evidence:  job.Evidence,
	})
	if err != nil {
		prop.Error = err.Error()
		return p.finish(path, prop)
	}

	prop.Status = StatusPendingReview
	prop.Target = sess.TargetScore()
	prop.Proposed = sess.Proposed()
	prop.Rationale = sess.Rationale()

	p.record(journal.Entry{
		Session: id,
		Agent:   job.Agent,
		Tier:    string(tier),
		From:    string(session.PhaseSetup),
		To:      string(session.PhaseReview),
		Detail:  "automated first-pass assessment",
	})

	return p.finish(path, prop)
}

// finish persists the proposal and removes the consumed job file.
func (p *Processor) finish(path string, prop Proposal) error {
	if err := p.store.Put(prop); err != nil {
		return fmt.Errorf("store proposal %s: %w", prop.ID, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove job file: %w", err)
	}
	if prop.Status == StatusFailed {
		return fmt.Errorf("job %s failed: %s", prop.ID, prop.Error)
	}
	return nil
}

func (p *Processor) record(e journal.Entry) {
	if p.journal != nil {
		_ = p.journal.Record(e)
	}
}

func readJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	return &j, nil
}
