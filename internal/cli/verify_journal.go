package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/config"
	"github.com/ryumin/agentaudit/internal/journal"
)

var verifyJournalConfig string

func init() {
	rootCmd.AddCommand(verifyJournalCmd)
	verifyJournalCmd.Flags().StringVar(&verifyJournalConfig, "config", "", "Path to config YAML")
}

var verifyJournalCmd = &cobra.Command{
	Use:   "verify-journal [path]",
	Short: "Verify the journal hash chain",
	Long:  "Walks the session journal and checks every entry's prev_hash against\nthe previous line. Exit code 0 if intact, 1 if tampered or truncated.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerifyJournal,
}

func runVerifyJournal(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load(verifyJournalConfig)
		if err != nil {
			return err
		}
		path = cfg.JournalPath
	}

	result := journal.Verify(path)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}
