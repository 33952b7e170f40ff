package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/catalog"
)

var domainsLevels bool

func init() {
	rootCmd.AddCommand(domainsCmd)
	domainsCmd.Flags().BoolVar(&domainsLevels, "levels", false, "Also print the 0-5 maturity level definitions")
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the six security domains",
	RunE:  runDomains,
}

func runDomains(cmd *cobra.Command, args []string) error {
	for _, d := range catalog.Domains() {
		fmt.Println(d)
	}
	if domainsLevels {
		fmt.Println()
		fmt.Println("Maturity levels:")
		for level := 0; level <= 5; level++ {
			fmt.Printf("  %d: %s\n", level, catalog.LevelDefinition(level))
		}
	}
	return nil
}
