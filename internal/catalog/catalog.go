// Package catalog defines the fixed set of assessed security domains and
// the domain-agnostic maturity level definitions. The catalog is static:
// every audit in the system scores exactly these domains on the 0-5 scale.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// MinLevel and MaxLevel bound the maturity scale.
const (
	MinLevel = 0
	MaxLevel = 5
)

// domains is the fixed assessment order. Reports, prompts, and radar
// series all follow this order.
var domains = []string{
	"Identity & Access",
	"Memory & Data",
	"Agent Control",
	"Adversarial Defense",
	"Orchestration",
	"Supply Chain",
}

// levelDefinitions describes what each maturity level means. Levels are
// domain-agnostic: the same definition applies to every domain.
var levelDefinitions = map[int]string{
	0: "Level 0 (Absent): No controls in place for this domain.",
	1: "Level 1 (Basic): Manual logs, standard API keys, basic firewalls.",
	2: "Level 2 (Managed): RBAC for tools, PII redaction, human approval.",
	3: "Level 3 (Defined): Trajectory logging, loop detection, short-lived creds.",
	4: "Level 4 (Measured): Automated kill-switches, hallucination checks.",
	5: "Level 5 (Optimized): Self-healing agents, real-time adversarial defense.",
}

// Scores maps a domain name to an integer maturity level.
type Scores map[string]int

// Domains returns the fixed ordered list of assessed domains.
func Domains() []string {
	out := make([]string, len(domains))
	copy(out, domains)
	return out
}

// IsDomain reports whether name is one of the assessed domains.
func IsDomain(name string) bool {
	for _, d := range domains {
		if d == name {
			return true
		}
	}
	return false
}

// LevelDefinition returns the human-readable definition for a maturity
// level, or "" for levels outside the scale.
func LevelDefinition(level int) string {
	return levelDefinitions[level]
}

// ClampScore forces a level into [MinLevel, MaxLevel].
func ClampScore(n int) int {
	if n < MinLevel {
		return MinLevel
	}
	if n > MaxLevel {
		return MaxLevel
	}
	return n
}

// ZeroScores returns a score map covering every domain at level 0.
func ZeroScores() Scores {
	s := make(Scores, len(domains))
	for _, d := range domains {
		s[d] = 0
	}
	return s
}

// Clone returns an independent copy of the score map.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// MalformedScoreSetError reports a score map that does not cover exactly
// the catalog's domain set with in-range integer levels.
type MalformedScoreSetError struct {
	Missing    []string
	Unknown    []string
	OutOfRange map[string]int
}

func (e *MalformedScoreSetError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing domains: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown domains: %s", strings.Join(e.Unknown, ", ")))
	}
	if len(e.OutOfRange) > 0 {
		keys := make([]string, 0, len(e.OutOfRange))
		for k := range e.OutOfRange {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var oor []string
		for _, k := range keys {
			oor = append(oor, fmt.Sprintf("%s=%d", k, e.OutOfRange[k]))
		}
		parts = append(parts, fmt.Sprintf("scores outside [%d,%d]: %s", MinLevel, MaxLevel, strings.Join(oor, ", ")))
	}
	return "malformed score set: " + strings.Join(parts, "; ")
}

// ValidateScores checks that s covers exactly the catalog's domains with
// levels in [MinLevel, MaxLevel]. Returns *MalformedScoreSetError on any
// deviation.
func ValidateScores(s Scores) error {
	e := &MalformedScoreSetError{}

	for _, d := range domains {
		v, ok := s[d]
		if !ok {
			e.Missing = append(e.Missing, d)
			continue
		}
		if v < MinLevel || v > MaxLevel {
			if e.OutOfRange == nil {
				e.OutOfRange = make(map[string]int)
			}
			e.OutOfRange[d] = v
		}
	}

	for k := range s {
		if !IsDomain(k) {
			e.Unknown = append(e.Unknown, k)
		}
	}
	sort.Strings(e.Unknown)

	if len(e.Missing) > 0 || len(e.Unknown) > 0 || len(e.OutOfRange) > 0 {
		return e
	}
	return nil
}
