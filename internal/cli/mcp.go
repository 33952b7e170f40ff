package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ryumin/agentaudit/internal/config"
	auditmcp "github.com/ryumin/agentaudit/internal/mcp"
	"github.com/ryumin/agentaudit/internal/oracle"
)

var mcpConfig string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpConfig, "config", "", "Path to config YAML")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs agentaudit as an MCP (Model Context Protocol) server over stdio.\nExposes the audit workflow as tools: submit, status, review, back,\napprove, report, reset.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(mcpConfig)
	if err != nil {
		return err
	}

	client := oracle.NewClient(oracle.Config{
		APIURL:  cfg.Oracle.APIURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
		Timeout: cfg.OracleTimeout(),
	})

	srv, err := auditmcp.New(auditmcp.Config{
		Oracle:      client,
		APIKey:      cfg.Oracle.APIKey,
		JournalPath: cfg.JournalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "agentaudit MCP server running on stdio")
	if cfg.Oracle.APIKey == "" {
		fmt.Fprintln(os.Stderr, "warning: no API key configured; submits will be rejected")
	}
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
