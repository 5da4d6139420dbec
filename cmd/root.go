package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point when toolgate is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Multi-tenant API integration gateway",
	Long: `toolgate fronts a catalog of external service APIs behind one
uniform surface: a five-tool MCP discovery layer for agents, a REST proxy
with compliance filtering, and vendor-abstracted operations.`,
	SilenceUsage: true,
}

// SetVersion injects the build version from main.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "toolgate version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newVersionCmd())
}
