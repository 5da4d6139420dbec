package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"toolgate/internal/app"

	"github.com/spf13/cobra"
)

// newServeCmd creates the command that runs the gateway.
func newServeCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway (HTTP + MCP)",
		Long: `Loads the service catalog, builds the adapter, operation, vendor,
and compliance registries, and serves the REST and MCP surfaces until
interrupted. Configuration comes from the environment (PORT, CATALOG_PATH,
ALLOWED_ORIGINS, ENCRYPTION_KEY, PSEUDONYM_SALT, ...).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.Bootstrap(ctx, cfg, rootCmd.Version)
			if err != nil {
				return fmt.Errorf("bootstrap failed: %w", err)
			}
			return application.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}
