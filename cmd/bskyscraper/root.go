package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"bskyscraper/pkg/ui"
)

var (
	// Version information, set with -ldflags
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	metricsAddr string
	noColor     bool
	quiet       bool
	verbose     bool
)

// rootCmd collects the timeline when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "bskyscraper",
	Short: "Collect your Bluesky home timeline into a CSV file",
	Long: `bskyscraper signs in to Bluesky with an app password, pages through the
home timeline of the account and writes the posts to a CSV file.

Features:
  - Secure credential storage using the system keychain
  - Configurable page size, pacing and retry budget
  - Optional image, reply and quote columns
  - Summary statistics after each run
  - Prometheus metrics for long runs`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColor()
		}
		if quiet {
			ui.SetQuietMode(true)
		}
	},
	RunE: runCollect,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.bskyscraper.yaml or ~/.config/bskyscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and the report")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.SetVersionTemplate(`bskyscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagChanged reports whether a local or inherited flag was set explicitly
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}
