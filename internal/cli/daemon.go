package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/config"
	"github.com/ryumin/agentaudit/internal/inbox"
	"github.com/ryumin/agentaudit/internal/journal"
	"github.com/ryumin/agentaudit/internal/oracle"
)

var (
	daemonDir    string
	daemonConfig string
	daemonPoll   time.Duration
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().StringVar(&daemonDir, "dir", "", "Base intake directory (default ~/.agentaudit)")
	daemonCmd.Flags().StringVar(&daemonConfig, "config", "", "Path to config YAML")
	daemonCmd.Flags().DurationVar(&daemonPoll, "poll", 0, "Poll interval instead of fsnotify (e.g. 5s); for filesystems without inotify")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch an inbox directory for audit jobs",
	Long: "Watches the inbox for JSON job files, scores each one, and writes a\n" +
		"pending proposal to the outbox. Proposals always wait for a human:\n" +
		"finalize them with 'agentaudit approve' or discard with 'reject'.",
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(daemonConfig)
	if err != nil {
		return err
	}

	dirs := intakeDirs(daemonDir)
	if err := inbox.EnsureDirs(dirs); err != nil {
		return fmt.Errorf("failed to prepare intake directories: %w", err)
	}

	store, err := inbox.NewStore(dirs)
	if err != nil {
		return fmt.Errorf("failed to open proposal store: %w", err)
	}

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jnl.Close()

	client := oracle.NewClient(oracle.Config{
		APIURL:  cfg.Oracle.APIURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
		Timeout: cfg.OracleTimeout(),
	})
	proc := inbox.NewProcessor(store, client, cfg.Oracle.APIKey, jnl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(path string) {
		if err := proc.Process(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "process %s: %v\n", filepath.Base(path), err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down daemon...")
		cancel()
	}()

	// Jobs dropped while the daemon was down.
	if err := inbox.ScanExisting(dirs.Inbox, handler); err != nil {
		fmt.Fprintf(os.Stderr, "warning: initial scan failed: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "agentaudit daemon watching %s\n", dirs.Inbox)

	if daemonPoll > 0 {
		return inbox.NewPollWatcher(dirs.Inbox, handler, daemonPoll).Run(ctx)
	}
	return inbox.NewWatcher(dirs.Inbox, handler).Run(ctx)
}

// intakeDirs resolves the intake layout for a --dir override, falling
// back to the default under the user's home.
func intakeDirs(base string) inbox.Dirs {
	if base == "" {
		return inbox.DefaultDirs()
	}
	return inbox.Dirs{
		Inbox:  filepath.Join(base, "inbox"),
		Outbox: filepath.Join(base, "outbox"),
		State:  filepath.Join(base, "state"),
	}
}
