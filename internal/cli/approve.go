package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/catalog"
	"github.com/ryumin/agentaudit/internal/config"
	"github.com/ryumin/agentaudit/internal/inbox"
	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/notify"
	"github.com/ryumin/agentaudit/internal/report"
	"github.com/ryumin/agentaudit/internal/session"
	"github.com/ryumin/agentaudit/internal/verdict"
)

var (
	approveDir    string
	approveConfig string
	approveFormat string
	approveSets   []string
)

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringVar(&approveDir, "dir", "", "Base intake directory (default ~/.agentaudit)")
	approveCmd.Flags().StringVar(&approveConfig, "config", "", "Path to config YAML")
	approveCmd.Flags().StringVarP(&approveFormat, "format", "f", "text", "Output format (text|json)")
	approveCmd.Flags().StringArrayVar(&approveSets, "set", nil, "Override a proposed score, e.g. --set 'Agent Control=4' (repeatable)")
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Finalize a pending proposal and print its verdict",
	Long: "Finalizes the reviewer-adjusted scores for a daemon proposal and moves\n" +
		"it to state/finalized. Use --set to override individual domain scores\n" +
		"before finalizing.",
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func runApprove(cmd *cobra.Command, args []string) error {
	id := args[0]

	cfg, err := config.Load(approveConfig)
	if err != nil {
		return err
	}

	store, err := inbox.NewStore(intakeDirs(approveDir))
	if err != nil {
		return fmt.Errorf("failed to open proposal store: %w", err)
	}

	prop, err := store.Get(id)
	if err != nil {
		return err
	}
	if prop.Status != inbox.StatusPendingReview {
		return fmt.Errorf("proposal %q is %s, not pending review", id, prop.Status)
	}

	final := prop.Proposed.Clone()
	if err := applySetFlags(final, approveSets); err != nil {
		return err
	}

	finalized, err := store.Finalize(id, final)
	if err != nil {
		return err
	}

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jnl.Close()
	_ = jnl.Record(journal.Entry{
		Session: id,
		Agent:   finalized.Agent,
		Tier:    finalized.Tier,
		From:    string(session.PhaseReview),
		To:      string(session.PhaseReport),
		Detail:  "proposal finalized by reviewer",
	})

	v, err := verdict.Evaluate(finalized.Finalized, finalized.Target)
	if err != nil {
		return err
	}

	switch approveFormat {
	case "json":
		out, err := report.FormatJSON(v)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(report.FormatText(v, finalized.Agent, finalized.Tier))
	}

	if cfg.Webhook.URL != "" {
		event := notify.NewVerdictEvent(v, finalized.Agent, finalized.Tier)
		if err := notify.Send(notify.WebhookConfig(cfg.Webhook), event); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: webhook notification failed: %v\n", err)
		}
	}
	return nil
}

// applySetFlags parses "Domain=N" overrides into the score set.
func applySetFlags(scores catalog.Scores, sets []string) error {
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: expected Domain=N", s)
		}
		name = strings.TrimSpace(name)
		if !catalog.IsDomain(name) {
			return fmt.Errorf("invalid --set %q: unknown domain %q", s, name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid --set %q: score must be an integer", s)
		}
		scores[name] = catalog.ClampScore(n)
	}
	return nil
}
