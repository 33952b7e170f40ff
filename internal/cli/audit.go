package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/catalog"
	"github.com/ryumin/agentaudit/internal/config"
	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/notify"
	"github.com/ryumin/agentaudit/internal/oracle"
	"github.com/ryumin/agentaudit/internal/report"
	"github.com/ryumin/agentaudit/internal/scope"
	"github.com/ryumin/agentaudit/internal/session"
)

var (
	auditAgent    string
	auditScope    string
	auditEvidence string
	auditConfig   string
	auditFormat   string
	auditOutput   string
	auditAccept   bool
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditAgent, "agent", "", "Name of the agent under audit (required)")
	auditCmd.Flags().StringVar(&auditScope, "scope", "", "Agency scope tier, e.g. bounded-autonomy (required)")
	auditCmd.Flags().StringVar(&auditEvidence, "evidence", "", "Path to evidence file, or '-' for stdin (required)")
	auditCmd.Flags().StringVar(&auditConfig, "config", "", "Path to config YAML")
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "", "Write the finalized scores as JSON to this file")
	auditCmd.Flags().BoolVar(&auditAccept, "accept", false, "Accept the proposed scores without interactive adjustment")
	auditCmd.MarkFlagRequired("agent")
	auditCmd.MarkFlagRequired("scope")
	auditCmd.MarkFlagRequired("evidence")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run a full audit: score, review, report",
	Long: "Submits evidence to the scoring model, walks the reviewer through the\n" +
		"proposed scores domain by domain, and prints the compliance verdict.\n" +
		"Exit code 0 if the agent is approved for its scope, 1 if blocked.",
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(auditConfig)
	if err != nil {
		return err
	}

	tier, err := scope.Parse(auditScope)
	if err != nil {
		return err
	}

	// Interactive review reads stdin, so piped evidence requires --accept.
	if auditEvidence == "-" && !auditAccept {
		return fmt.Errorf("evidence from stdin requires --accept (interactive review needs the terminal)")
	}

	evidence, err := readEvidence(auditEvidence)
	if err != nil {
		return err
	}

	client := oracle.NewClient(oracle.Config{
		APIURL:  cfg.Oracle.APIURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
		Timeout: cfg.OracleTimeout(),
	})
	sess := session.New(client)

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jnl.Close()

	fmt.Fprintf(os.Stderr, "Scoring %q against %s (target %.1f)...\n", auditAgent, tier, mustTarget(tier))

	err = sess.Submit(cmd.Context(), session.SubmitInput{
		AgentName: auditAgent,
		Tier:      tier,
		APIKey:    cfg.Oracle.APIKey,
		Evidence:  evidence,
	})
	if err != nil {
		return err
	}

	_ = jnl.Record(journal.Entry{
		Session: auditAgent,
		Agent:   auditAgent,
		Tier:    string(tier),
		From:    string(session.PhaseSetup),
		To:      string(session.PhaseReview),
		Detail:  "scores proposed",
	})

	proposed := sess.Proposed()
	fmt.Println()
	fmt.Println("Model rationale:")
	fmt.Println(indent(sess.Rationale(), "  "))
	fmt.Println()
	fmt.Println("Proposed scores:")
	for _, d := range catalog.Domains() {
		fmt.Printf("  %-22s %d  (%s)\n", d, proposed[d], catalog.LevelDefinition(proposed[d]))
	}
	fmt.Println()

	final := proposed
	if !auditAccept {
		final, err = reviewScores(proposed)
		if err != nil {
			return err
		}
	}

	if err := sess.Approve(final); err != nil {
		return err
	}

	_ = jnl.Record(journal.Entry{
		Session: auditAgent,
		Agent:   auditAgent,
		Tier:    string(tier),
		From:    string(session.PhaseReview),
		To:      string(session.PhaseReport),
		Detail:  "scores finalized by reviewer",
	})

	v, err := sess.Verdict()
	if err != nil {
		return err
	}

	switch auditFormat {
	case "json":
		out, err := report.FormatJSON(v)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(report.FormatText(v, auditAgent, string(tier)))
	}

	if auditOutput != "" {
		export, err := report.ScoresJSON(final)
		if err != nil {
			return err
		}
		if err := os.WriteFile(auditOutput, append(export, '\n'), 0600); err != nil {
			return fmt.Errorf("failed to write score export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Scores written to %s\n", auditOutput)
	}

	if cfg.Webhook.URL != "" {
		event := notify.NewVerdictEvent(v, auditAgent, string(tier))
		if err := notify.Send(notify.WebhookConfig(cfg.Webhook), event); err != nil {
			fmt.Fprintf(os.Stderr, "warning: webhook notification failed: %v\n", err)
		}
	}

	if !v.Approved {
		os.Exit(1)
	}
	return nil
}

// reviewScores walks the reviewer through each domain. Empty input
// keeps the proposed score.
func reviewScores(proposed catalog.Scores) (catalog.Scores, error) {
	fmt.Println("Review each score (enter to keep, or a new value 0-5):")
	reader := bufio.NewReader(os.Stdin)
	final := catalog.ZeroScores()
	for _, d := range catalog.Domains() {
		fmt.Printf("  %s [%d]: ", d, proposed[d])
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			final[d] = proposed[d]
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q for %s: expected 0-5", line, d)
		}
		final[d] = catalog.ClampScore(n)
	}
	fmt.Println()
	return final, nil
}

func readEvidence(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read evidence from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read evidence file: %w", err)
	}
	return string(data), nil
}

func mustTarget(t scope.Tier) float64 {
	target, _ := scope.Target(t)
	return target
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
