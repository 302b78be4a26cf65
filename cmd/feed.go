package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Fetch the Hue guide news feed once and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			feed, err := appInstance.Feed().Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch feed: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(feed); err != nil {
				return fmt.Errorf("encode feed: %w", err)
			}
			return nil
		},
	}
}
