package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/scope"
)

func init() {
	rootCmd.AddCommand(scopesCmd)
}

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "List agency scope tiers and their target scores",
	Long:  "Shows the four agency scope tiers. The tier chosen for an agent sets\nthe target maturity score its audit is measured against.",
	RunE:  runScopes,
}

func runScopes(cmd *cobra.Command, args []string) error {
	fmt.Printf("%-25s %s\n", "SCOPE", "TARGET")
	for _, t := range scope.Tiers() {
		target, err := scope.Target(t)
		if err != nil {
			return err
		}
		fmt.Printf("%-25s %.1f / 5.0\n", string(t), target)
	}
	return nil
}
