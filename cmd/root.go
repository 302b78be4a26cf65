// Package cmd defines the hdv command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sotaychohdv/hdv-functions/internal/config"
	"github.com/sotaychohdv/hdv-functions/internal/guides"
	"github.com/sotaychohdv/hdv-functions/internal/huefeed"
	"github.com/sotaychohdv/hdv-functions/internal/notify"
	"github.com/sotaychohdv/hdv-functions/internal/server"
)

// App is the surface the commands use. Tests inject a fake.
type App interface {
	Run(ctx context.Context) error
	Close() error
	Feed() huefeed.Fetcher
	ScanExpiring(ctx context.Context) (notify.ScanReport, error)
	ScrapeGuides(ctx context.Context) (guides.Result, error)
}

type appKeyType struct{}

// newApp is the application factory. It is a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	app, err := server.Build(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "hdv",
		Short: "Backend jobs and HTTP functions for Sổ Tay cho HDV",
		Long: `hdv serves the Hue guide news feed, provider share cards and guide
card expiry reminders, and scrapes the national tour guide registry.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKeyType{}, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if appInstance, ok := cmd.Context().Value(appKeyType{}).(App); ok && appInstance != nil {
				return appInstance.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFeedCmd())
	cmd.AddCommand(newGuidesCmd())
	cmd.AddCommand(newExpiringCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKeyType{}).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return appInstance, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
