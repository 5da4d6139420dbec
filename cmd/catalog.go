package cmd

import (
	"path/filepath"
	"strings"

	"toolgate/internal/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// newCatalogCmd creates the command that lists the service catalog without
// starting the gateway.
func newCatalogCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the services in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := catalog.NewLoader(filepath.Dir(catalogPath))
			descriptors, err := loader.Load(catalogPath)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "Category", "Base URL", "Auth", "Endpoints", "Compliance"})
			for _, desc := range descriptors {
				t.AppendRow(table.Row{
					desc.Name,
					desc.Category(),
					desc.BaseURL,
					string(desc.Authentication.Type),
					len(desc.Endpoints),
					complianceSummary(desc.Compliance),
				})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "catalog.json", "path to catalog.json")
	return cmd
}

func complianceSummary(flags catalog.ComplianceFlags) string {
	var enabled []string
	if flags.PCI {
		enabled = append(enabled, "PCI")
	}
	if flags.GDPR {
		enabled = append(enabled, "GDPR")
	}
	if flags.PSD2 {
		enabled = append(enabled, "PSD2")
	}
	if flags.SOX {
		enabled = append(enabled, "SOX")
	}
	if flags.HIPAA {
		enabled = append(enabled, "HIPAA")
	}
	if len(enabled) == 0 {
		return "-"
	}
	return strings.Join(enabled, ",")
}
