package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/config"
	"github.com/ryumin/agentaudit/internal/inbox"
	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/session"
)

var (
	rejectDir    string
	rejectConfig string
)

func init() {
	rootCmd.AddCommand(rejectCmd)
	rejectCmd.Flags().StringVar(&rejectDir, "dir", "", "Base intake directory (default ~/.agentaudit)")
	rejectCmd.Flags().StringVar(&rejectConfig, "config", "", "Path to config YAML")
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Discard a pending or failed proposal",
	Long:  "Moves a proposal to state/rejected without producing a verdict. Use\nwhen the evidence was wrong, the job should not have been submitted,\nor a failed job has been dealt with.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

func runReject(cmd *cobra.Command, args []string) error {
	id := args[0]

	cfg, err := config.Load(rejectConfig)
	if err != nil {
		return err
	}

	store, err := inbox.NewStore(intakeDirs(rejectDir))
	if err != nil {
		return fmt.Errorf("failed to open proposal store: %w", err)
	}

	if err := store.Reject(id); err != nil {
		return err
	}

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jnl.Close()
	_ = jnl.Record(journal.Entry{
		Session: id,
		From:    string(session.PhaseReview),
		To:      string(session.PhaseSetup),
		Detail:  "proposal rejected by reviewer",
	})

	fmt.Printf("Rejected %q\n", id)
	return nil
}
