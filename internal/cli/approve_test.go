package cli

import (
	"strings"
	"testing"

	"github.com/ryumin/agentaudit/internal/catalog"
)

func TestApplySetFlags(t *testing.T) {
	scores := catalog.ZeroScores()
	scores["Agent Control"] = 2

	err := applySetFlags(scores, []string{"Agent Control=4", "Supply Chain = 3"})
	if err != nil {
		t.Fatalf("applySetFlags: %v", err)
	}
	if scores["Agent Control"] != 4 {
		t.Errorf("Agent Control = %d, want 4", scores["Agent Control"])
	}
	if scores["Supply Chain"] != 3 {
		t.Errorf("Supply Chain = %d, want 3", scores["Supply Chain"])
	}
}

func TestApplySetFlagsClampsRange(t *testing.T) {
	scores := catalog.ZeroScores()
	if err := applySetFlags(scores, []string{"Orchestration=9"}); err != nil {
		t.Fatalf("applySetFlags: %v", err)
	}
	if scores["Orchestration"] != 5 {
		t.Errorf("Orchestration = %d, want clamped to 5", scores["Orchestration"])
	}
}

func TestApplySetFlagsRejectsBadInput(t *testing.T) {
	cases := []struct {
		set  string
		want string
	}{
		{"Agent Control", "expected Domain=N"},
		{"Warp Drive=3", "unknown domain"},
		{"Agent Control=high", "must be an integer"},
	}
	for _, tc := range cases {
		err := applySetFlags(catalog.ZeroScores(), []string{tc.set})
		if err == nil {
			t.Errorf("set %q: expected error", tc.set)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("set %q: error = %v, want substring %q", tc.set, err, tc.want)
		}
	}
}

func TestIntakeDirsOverride(t *testing.T) {
	dirs := intakeDirs("/tmp/audits")
	if dirs.Inbox != "/tmp/audits/inbox" {
		t.Errorf("inbox = %s", dirs.Inbox)
	}
	if dirs.State != "/tmp/audits/state" {
		t.Errorf("state = %s", dirs.State)
	}

	def := intakeDirs("")
	if !strings.HasSuffix(def.Inbox, ".agentaudit/inbox") {
		t.Errorf("default inbox = %s", def.Inbox)
	}
}
