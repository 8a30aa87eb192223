package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bskyscraper/pkg/config"
	"bskyscraper/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage bskyscraper configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (BSKYSCRAPER_*, .env is read too)
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.bskyscraper.yaml' in the current directory unless
a different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. The password is
masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)
}

const exampleConfig = `# bskyscraper configuration
#
# Every option can also be set with a BSKYSCRAPER_ environment variable,
# for example BSKYSCRAPER_IDENTIFIER or BSKYSCRAPER_MAX_POSTS.

bluesky:
  # Handle, DID or email. Leave empty to use 'bskyscraper auth login'.
  identifier: ""
  # App password. Prefer the credential store or BSKYSCRAPER_PASSWORD.
  password: ""
  host: "https://bsky.social"
  request_timeout: 30s

collection:
  # Upper bound on collected posts
  max_posts: 100
  # Posts per getTimeline request, 1-100
  posts_per_request: 50
  # Pause between requests; doubled after a failed request
  rate_limit_delay: 1s
  # Consecutive failed requests before giving up
  max_retries: 3
  collect_images: true
  collect_replies: true
  collect_quotes: true

output:
  directory: "data"
  # Base name; .csv is appended
  filename: "bluesky_posts"
  # Append _YYYYMMDD_HHMMSS to the base name
  include_timestamp: true

# Client side request budget on top of rate_limit_delay
rate_limit:
  requests_per_window: 3000
  window: 5m
  burst: 10

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Optional JSON log file
  file: ""

metrics:
  # Serve Prometheus metrics, e.g. ":9090". Empty disables.
  addr: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".bskyscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Run 'bskyscraper auth login' to store an app password")
	fmt.Fprintln(out, "2. Run 'bskyscraper config validate' to check the file")
	fmt.Fprintln(out, "3. Collect with 'bskyscraper collect'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	redacted := cfg.Redacted()
	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (BSKYSCRAPER_*)")
	if configFile != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (searched default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []error
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintWarning("Credentials not configured, a stored account will be used", err)
	}

	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Host: %s\n", cfg.Bluesky.Host)
	fmt.Fprintf(out, "  Max posts: %d (%d per request)\n", cfg.Collection.MaxPosts, cfg.Collection.PostsPerRequest)
	fmt.Fprintf(out, "  Delay: %s\n", cfg.Collection.RateLimitDelay)
	fmt.Fprintf(out, "  Max retries: %d\n", cfg.Collection.MaxRetries)
	fmt.Fprintf(out, "  Output: %s/%s.csv\n", cfg.Output.Directory, cfg.Output.Filename)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
