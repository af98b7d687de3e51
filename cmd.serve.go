package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin web service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to setup app configuration: %w", err)
			}
			app, err := NewApp(config)
			if err != nil {
				return fmt.Errorf("application failed to initialize: %w", err)
			}
			if err = app.Run(); err != nil {
				return fmt.Errorf("application exited. check logs for more details: %w", err)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "library-admin %s (commit: %s, built: %s, %s %s/%s)\n",
				valueOr(GitTag, "dev"), valueOr(GitCommit, "none"), valueOr(BuildTime, "unknown"),
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
