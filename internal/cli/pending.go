package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/inbox"
)

var pendingDir string

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().StringVar(&pendingDir, "dir", "", "Base intake directory (default ~/.agentaudit)")
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List proposals awaiting review",
	Long:  "Shows all outbox proposals with their agent, scope tier, and target.\nFailed jobs show the error instead of a target.",
	RunE:  runPending,
}

func runPending(cmd *cobra.Command, args []string) error {
	store, err := inbox.NewStore(intakeDirs(pendingDir))
	if err != nil {
		return fmt.Errorf("failed to open proposal store: %w", err)
	}

	list, err := store.Pending()
	if err != nil {
		return fmt.Errorf("failed to list proposals: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No pending proposals.")
		return nil
	}

	fmt.Printf("%-20s %-25s %-20s %-8s %s\n", "ID", "AGENT", "SCOPE", "TARGET", "CREATED")
	for _, p := range list {
		target := fmt.Sprintf("%.1f", p.Target)
		if p.Status == inbox.StatusFailed {
			target = "failed"
		}
		fmt.Printf("%-20s %-25s %-20s %-8s %s\n",
			truncate(p.ID, 20),
			truncate(p.Agent, 25),
			truncate(p.Tier, 20),
			target,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
