package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bskyscraper/pkg/auth"
	"bskyscraper/pkg/config"
	"bskyscraper/pkg/logger"
	"bskyscraper/pkg/metrics"
	"bskyscraper/pkg/scraper"
	"bskyscraper/pkg/ui"
)

var (
	// Collect command flags
	identifier  string
	host        string
	accountName string
	maxPosts    int
	perRequest  int
	delay       string
	maxRetries  int
	outputDir   string
	filename    string
	noTimestamp bool
	noImages    bool
	noReplies   bool
	noQuotes    bool
)

var newCredentialManager = auth.NewManager

// collectCmd is also what the root command runs
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect the home timeline into a CSV file",
	Long: `Collect posts from the home timeline of the signed-in account.

Credentials are taken from, in order:
  - BSKYSCRAPER_IDENTIFIER and BSKYSCRAPER_PASSWORD or the config file
  - The stored account named by --account
  - The default stored account (use 'bskyscraper auth login' to store one)

Collection stops when --max-posts posts were gathered, when the timeline
has no more pages or after --max-retries consecutive failed requests.`,
	Example: `  # Collect 100 posts with default settings
  bskyscraper

  # Collect 500 posts, 100 per request, half a second apart
  bskyscraper collect --max-posts 500 --per-request 100 --delay 0.5

  # Only the core columns, to a fixed file name
  bskyscraper collect --no-images --no-replies --no-quotes --filename timeline --no-timestamp

  # Use a specific stored account
  bskyscraper collect --account alice.bsky.social`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	addCollectFlags(collectCmd)
	addCollectFlags(rootCmd)
}

func addCollectFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&identifier, "identifier", "", "handle, DID or email to sign in with")
	cmd.Flags().StringVar(&host, "host", "", "PDS or entryway URL (default https://bsky.social)")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	cmd.Flags().IntVarP(&maxPosts, "max-posts", "n", 100, "maximum number of posts to collect")
	cmd.Flags().IntVar(&perRequest, "per-request", 50, "posts per timeline request (1-100)")
	cmd.Flags().StringVar(&delay, "delay", "1", "pause between requests, in seconds or as a duration (1.5, 500ms)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "consecutive failed requests before stopping")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default data)")
	cmd.Flags().StringVar(&filename, "filename", "", "CSV base name without extension (default bluesky_posts)")
	cmd.Flags().BoolVar(&noTimestamp, "no-timestamp", false, "do not append _YYYYMMDD_HHMMSS to the file name")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "omit has_images and image_count")
	cmd.Flags().BoolVar(&noReplies, "no-replies", false, "omit the replies column")
	cmd.Flags().BoolVar(&noQuotes, "no-quotes", false, "omit is_quote and quoted_post")
}

// collectOverrides turns explicitly set flags into config overrides so that
// flag defaults never mask file or environment values
func collectOverrides(cmd *cobra.Command) (map[string]interface{}, error) {
	flags := make(map[string]interface{})

	if flagChanged(cmd, "identifier") {
		flags["identifier"] = identifier
	}
	if flagChanged(cmd, "host") {
		flags["host"] = host
	}
	if flagChanged(cmd, "max-posts") {
		flags["max-posts"] = maxPosts
	}
	if flagChanged(cmd, "per-request") {
		flags["posts-per-request"] = perRequest
	}
	if flagChanged(cmd, "delay") {
		d, err := config.ParseDelay(delay)
		if err != nil {
			return nil, fmt.Errorf("invalid --delay: %w", err)
		}
		flags["rate-limit-delay"] = d
	}
	if flagChanged(cmd, "max-retries") {
		flags["max-retries"] = maxRetries
	}
	if flagChanged(cmd, "output") {
		flags["output-dir"] = outputDir
	}
	if flagChanged(cmd, "filename") {
		flags["filename"] = filename
	}
	if flagChanged(cmd, "no-timestamp") {
		flags["include-timestamp"] = !noTimestamp
	}
	if flagChanged(cmd, "no-images") {
		flags["collect-images"] = !noImages
	}
	if flagChanged(cmd, "no-replies") {
		flags["collect-replies"] = !noReplies
	}
	if flagChanged(cmd, "no-quotes") {
		flags["collect-quotes"] = !noQuotes
	}
	if flagChanged(cmd, "metrics-addr") {
		flags["metrics-addr"] = metricsAddr
	}

	switch {
	case flagChanged(cmd, "log-level"):
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "debug"
	case quiet:
		flags["log-level"] = "error"
	}

	return flags, nil
}

// resolveCredentials fills in the identifier and password from the
// credential store unless the configuration already carries both
func resolveCredentials(cfg *config.Config, account string, hostFromFlag bool) error {
	if account == "" && cfg.Bluesky.Identifier != "" && cfg.Bluesky.Password != "" {
		return nil
	}

	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	id := account
	if id == "" {
		id = cfg.Bluesky.Identifier
	}

	stored, err := manager.Resolve(id)
	if err != nil {
		return fmt.Errorf("no Bluesky credentials found: %w", err)
	}

	cfg.Bluesky.Identifier = stored.Identifier
	cfg.Bluesky.Password = stored.Password
	if stored.Host != "" && !hostFromFlag {
		cfg.Bluesky.Host = stored.Host
	}
	return cfg.ValidateCredentials()
}

func runCollect(cmd *cobra.Command, args []string) error {
	flags, err := collectOverrides(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("bskyscraper starting")

	if err := resolveCredentials(cfg, accountName, flagChanged(cmd, "host")); err != nil {
		log.WithError(err).Error("No usable credentials")
		fmt.Fprintln(os.Stderr, "\nTo store an app password securely, run:")
		fmt.Fprintln(os.Stderr, "  bskyscraper auth login")
		fmt.Fprintln(os.Stderr, "\nOr set environment variables:")
		fmt.Fprintln(os.Stderr, "  export BSKYSCRAPER_IDENTIFIER=alice.bsky.social")
		fmt.Fprintln(os.Stderr, "  export BSKYSCRAPER_PASSWORD=xxxx-xxxx-xxxx-xxxx")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	if srv := metrics.StartServer(cfg.Metrics.Addr, errc); srv != nil {
		log.WithField("addr", cfg.Metrics.Addr).Info("Metrics server listening")
		defer srv.Close()
		go func() {
			if err := <-errc; err != nil {
				log.WithError(err).Warn("Metrics server stopped")
			}
		}()
	}

	ui.PrintBanner()
	ui.PrintInfo("Account", cfg.Bluesky.Identifier)
	ui.PrintInfo("Target", fmt.Sprintf("%d posts, %d per request", cfg.Collection.MaxPosts, cfg.Collection.PostsPerRequest))

	s := scraper.New(cfg)
	tracker := ui.NewStatusTracker(cfg.Collection.MaxPosts)
	s.SetObserver(tracker)

	outcome, err := s.Run(ctx)
	tracker.Complete()
	if err != nil {
		log.WithError(err).Error("Collection failed")
		return err
	}

	switch outcome.Stop {
	case scraper.StopCancelled:
		ui.PrintWarning("Collection interrupted, partial results saved")
	case scraper.StopRetriesExhausted:
		ui.PrintWarning("Collection stopped early after repeated failures")
	}

	log.InfoWithFields("Collection finished", map[string]interface{}{
		"stop":  outcome.Stop,
		"calls": outcome.Calls,
		"posts": outcome.Table.Len(),
		"path":  outcome.Path,
	})
	return nil
}
