// Package scope maps named agency scope tiers to their compliance
// targets. A tier names how much autonomy an agent is granted; its
// target is the minimum aggregate maturity required before deployment
// at that autonomy level is approved.
package scope

import (
	"fmt"
	"strings"
)

// Tier is a named agency scope level.
type Tier string

// Tiers in increasing order of autonomy. TierUnselected is the sentinel
// shown before the operator picks a scope.
const (
	TierUnselected    Tier = "Select Scope..."
	TierReadOnly      Tier = "Read-Only"
	TierHumanInLoop   Tier = "Human-in-the-Loop"
	TierBoundedAgency Tier = "Bounded Autonomy"
	TierFullAgency    Tier = "Full Agency"
)

// targets holds the fixed compliance target per tier. Targets are
// strictly increasing with autonomy: more freedom demands more maturity.
var targets = map[Tier]float64{
	TierReadOnly:      1.5,
	TierHumanInLoop:   2.5,
	TierBoundedAgency: 3.5,
	TierFullAgency:    4.5,
}

// ordered lists the selectable tiers from least to most autonomous.
var ordered = []Tier{
	TierReadOnly,
	TierHumanInLoop,
	TierBoundedAgency,
	TierFullAgency,
}

// InvalidScopeError reports a lookup on the sentinel or an unknown tier.
type InvalidScopeError struct {
	Name string
}

func (e *InvalidScopeError) Error() string {
	if e.Name == "" || Tier(e.Name) == TierUnselected {
		return "no agency scope selected"
	}
	return fmt.Sprintf("unknown agency scope: %q", e.Name)
}

// Tiers returns the selectable tiers in increasing autonomy order.
func Tiers() []Tier {
	out := make([]Tier, len(ordered))
	copy(out, ordered)
	return out
}

// Target returns the compliance target for a tier. The sentinel and
// unrecognized names fail with *InvalidScopeError.
func Target(t Tier) (float64, error) {
	v, ok := targets[t]
	if !ok {
		return 0, &InvalidScopeError{Name: string(t)}
	}
	return v, nil
}

// Parse resolves operator input to a Tier. It accepts the canonical
// name and a lowercase slug form (e.g. "bounded-autonomy"). Empty input
// maps to the sentinel.
func Parse(s string) (Tier, error) {
	if s == "" {
		return TierUnselected, &InvalidScopeError{}
	}
	for _, t := range ordered {
		if s == string(t) || slug(s) == slug(string(t)) {
			return t, nil
		}
	}
	return TierUnselected, &InvalidScopeError{Name: s}
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
