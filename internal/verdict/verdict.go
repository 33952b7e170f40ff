// Package verdict turns finalized maturity scores and a compliance
// target into per-domain gap analysis and an overall deployment
// decision. Evaluation is pure: same inputs, same verdict.
package verdict

import (
	"github.com/ryumin/agentaudit/internal/catalog"
)

// DomainResult is the gap analysis for one domain.
type DomainResult struct {
	Domain    string  `json:"domain"`
	Score     int     `json:"score"`
	Gap       float64 `json:"gap"`
	Compliant bool    `json:"compliant"`
}

// Verdict is the overall compliance decision. Approval is based on the
// average score; per-domain gaps are based on individual scores. A
// verdict can be approved while individual domains still show gaps —
// the target is an aggregate threshold, not a unanimous one.
type Verdict struct {
	Target   float64        `json:"target"`
	Average  float64        `json:"average"`
	Approved bool           `json:"approved"`
	Domains  []DomainResult `json:"domains"`
}

// Evaluate computes the verdict for a finalized score set against a
// target. The score set must cover exactly the catalog's domains; a
// malformed set is the only failure mode.
func Evaluate(scores catalog.Scores, target float64) (*Verdict, error) {
	if err := catalog.ValidateScores(scores); err != nil {
		return nil, err
	}

	v := &Verdict{Target: target}
	sum := 0
	for _, d := range catalog.Domains() {
		score := scores[d]
		sum += score

		gap := target - float64(score)
		if gap < 0 {
			gap = 0
		}
		v.Domains = append(v.Domains, DomainResult{
			Domain:    d,
			Score:     score,
			Gap:       gap,
			Compliant: float64(score) >= target,
		})
	}

	v.Average = float64(sum) / float64(len(v.Domains))
	v.Approved = v.Average >= target
	return v, nil
}

// GapDomains returns the domains that fall short of the target, in
// catalog order.
func (v *Verdict) GapDomains() []DomainResult {
	var out []DomainResult
	for _, d := range v.Domains {
		if !d.Compliant {
			out = append(out, d)
		}
	}
	return out
}
