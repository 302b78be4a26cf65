package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newExpiringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expiring",
		Short: "List guides whose cards expire soon and send due reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			report, err := appInstance.ScanExpiring(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan guide profiles: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UID\tNAME\tCARD\tEXPIRES\tDAYS\tNOTIFIED")
			for _, g := range report.Expiring {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n", g.UID, g.FullName, g.CardNumber, g.ExpiryDate, g.DaysLeft, g.Notified)
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d expiring=%d sent=%d failed=%d\n",
				report.Scanned, len(report.Expiring), report.Sent, report.Failed)
			return nil
		},
	}
}
