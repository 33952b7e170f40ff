package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentaudit",
	Short: "Guided security maturity audits for AI agents",
	Long:  "Scores an AI agent's security posture across six fixed domains against\na target derived from its agency scope. An LLM proposes scores from\nevidence; a human reviewer always has the final word.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
