package verdict

import (
	"reflect"
	"testing"

	"github.com/ryumin/agentaudit/internal/catalog"
)

func uniform(level int) catalog.Scores {
	s := catalog.ZeroScores()
	for d := range s {
		s[d] = level
	}
	return s
}

func TestEvaluateAllAboveTarget(t *testing.T) {
	// Bounded Autonomy target, every domain at 4.
	v, err := Evaluate(uniform(4), 3.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Average != 4.0 {
		t.Errorf("average = %v, want 4.0", v.Average)
	}
	if !v.Approved {
		t.Error("expected approved")
	}
	for _, d := range v.Domains {
		if d.Gap != 0 || !d.Compliant {
			t.Errorf("%s: gap=%v compliant=%v, want 0/true", d.Domain, d.Gap, d.Compliant)
		}
	}
}

func TestEvaluateAllBelowTarget(t *testing.T) {
	v, err := Evaluate(uniform(3), 3.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Average != 3.0 {
		t.Errorf("average = %v, want 3.0", v.Average)
	}
	if v.Approved {
		t.Error("3.0 < 3.5 must not be approved")
	}
	for _, d := range v.Domains {
		if d.Gap != 0.5 {
			t.Errorf("%s: gap = %v, want 0.5", d.Domain, d.Gap)
		}
	}
}

func TestEvaluateExactTargetIsCompliant(t *testing.T) {
	s := uniform(2)
	v, err := Evaluate(s, 2.0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !v.Approved {
		t.Error("average equal to target must be approved")
	}
	for _, d := range v.Domains {
		if !d.Compliant || d.Gap != 0 {
			t.Errorf("%s: score at target must be compliant with gap 0", d.Domain)
		}
	}
}

func TestEvaluateAggregateNotUnanimous(t *testing.T) {
	// Two domains lag while four exceed; average clears the target.
	s := catalog.Scores{
		"Identity & Access":   5,
		"Memory & Data":       5,
		"Agent Control":       5,
		"Adversarial Defense": 5,
		"Orchestration":       2,
		"Supply Chain":        2,
	}
	v, err := Evaluate(s, 3.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Average != 4.0 {
		t.Errorf("average = %v, want 4.0", v.Average)
	}
	if !v.Approved {
		t.Error("aggregate above target must be approved despite lagging domains")
	}

	gaps := v.GapDomains()
	if len(gaps) != 2 {
		t.Fatalf("gap domains = %d, want 2", len(gaps))
	}
	for _, g := range gaps {
		if g.Gap != 1.5 {
			t.Errorf("%s: gap = %v, want 1.5", g.Domain, g.Gap)
		}
	}
}

func TestEvaluateMalformedSet(t *testing.T) {
	s := uniform(3)
	delete(s, "Supply Chain")

	_, err := Evaluate(s, 3.5)
	if err == nil {
		t.Fatal("expected error for incomplete score set")
	}
	if _, ok := err.(*catalog.MalformedScoreSetError); !ok {
		t.Errorf("expected *catalog.MalformedScoreSetError, got %T", err)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	s := catalog.Scores{
		"Identity & Access":   1,
		"Memory & Data":       4,
		"Agent Control":       3,
		"Adversarial Defense": 0,
		"Orchestration":       5,
		"Supply Chain":        2,
	}
	v1, err := Evaluate(s, 2.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	v2, err := Evaluate(s, 2.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !reflect.DeepEqual(v1, v2) {
		t.Error("identical inputs produced different verdicts")
	}
}

func TestEvaluateDomainOrder(t *testing.T) {
	v, err := Evaluate(uniform(1), 1.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := catalog.Domains()
	for i, d := range v.Domains {
		if d.Domain != want[i] {
			t.Errorf("domain[%d] = %s, want %s", i, d.Domain, want[i])
		}
	}
}
