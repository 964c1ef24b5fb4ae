package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "topchat-server",
		Short: "Live CPU and memory dashboard with chat over WebSocket",
		Long: `topchat-server samples host CPU and memory several times a second and
streams every sample to connected browsers over WebSocket, together with
a small chat channel shared by all viewers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "path to config file (defaults apply when empty)")
	f.StringVar(&opts.envFile, "env-file", ".env", "load environment variables from this file if it exists")
	f.StringVar(&opts.uiDir, "ui-dir", "", "serve static UI files from this directory (overrides server.ui_dir)")

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "topchat-server %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
