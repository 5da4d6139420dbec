package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"toolgate/internal/app"

	"github.com/spf13/cobra"
)

// newMCPCmd creates the command that serves the meta-tools over stdio for
// local MCP clients. Stdout carries the protocol stream, so logs go to
// stderr.
func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP meta-tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			cfg.LogOutput = os.Stderr

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.Bootstrap(ctx, cfg, rootCmd.Version)
			if err != nil {
				return fmt.Errorf("bootstrap failed: %w", err)
			}
			return application.ServeStdio(ctx)
		},
	}
}
