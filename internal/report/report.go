// Package report renders audit results: the downloadable score export,
// the executive summary for the terminal, and the data series a UI
// needs to draw a maturity-vs-target radar.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ryumin/agentaudit/internal/catalog"
	"github.com/ryumin/agentaudit/internal/verdict"
)

// ScoresJSON serializes finalized scores as indented JSON, domain name
// to integer and nothing else. This is the downloadable report artifact.
func ScoresJSON(scores catalog.Scores) ([]byte, error) {
	if err := catalog.ValidateScores(scores); err != nil {
		return nil, err
	}
	return json.MarshalIndent(scores, "", "  ")
}

// FormatText renders an executive summary as human-readable text.
func FormatText(v *verdict.Verdict, agent string, tier string) string {
	var b strings.Builder

	header := fmt.Sprintf("Audit: %s — Scope: %s (target %.1f)", agent, tier, v.Target)
	fmt.Fprintln(&b, header)
	fmt.Fprintln(&b, strings.Repeat("═", len([]rune(header))))

	for _, d := range v.Domains {
		status := "OK"
		gap := ""
		if !d.Compliant {
			status = "GAP"
			gap = fmt.Sprintf("needs +%.1f", d.Gap)
		}
		fmt.Fprintf(&b, "  %-22s %d/5  %-4s %s\n", d.Domain, d.Score, status, gap)
	}

	fmt.Fprintln(&b, strings.Repeat("─", len([]rune(header))))
	fmt.Fprintf(&b, "Final score: %.1f / 5.0\n", v.Average)

	if v.Approved {
		fmt.Fprintln(&b, "Result: APPROVED FOR DEPLOYMENT")
		if gaps := v.GapDomains(); len(gaps) > 0 {
			fmt.Fprintf(&b, "Note: %d domain(s) below target despite aggregate approval\n", len(gaps))
		}
	} else {
		fmt.Fprintln(&b, "Result: DEPLOYMENT BLOCKED — critical gaps found, do not deploy")
	}

	return b.String()
}

// FormatJSON renders the full verdict as indented JSON.
func FormatJSON(v *verdict.Verdict) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal verdict: %w", err)
	}
	return string(data), nil
}

// RadarSeries is the plotting contract for a radar comparison: one
// value and one target per domain, in catalog order.
type RadarSeries struct {
	Domains []string  `json:"domains"`
	Values  []float64 `json:"values"`
	Targets []float64 `json:"targets"`
}

// Radar builds the radar series from a verdict.
func Radar(v *verdict.Verdict) RadarSeries {
	rs := RadarSeries{}
	for _, d := range v.Domains {
		rs.Domains = append(rs.Domains, d.Domain)
		rs.Values = append(rs.Values, float64(d.Score))
		rs.Targets = append(rs.Targets, v.Target)
	}
	return rs
}
