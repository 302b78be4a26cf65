package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGuidesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guides",
		Short: "Scrape the national guide registry and export the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			result, err := appInstance.ScrapeGuides(cmd.Context())
			if err != nil {
				return fmt.Errorf("scrape guides: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scraped %d guides from %s\n", len(result.Export.Guides), result.Export.Source)
			if result.URI != "" {
				fmt.Fprintf(out, "Export written to %s\n", result.URI)
			}
			return nil
		},
	}
}
