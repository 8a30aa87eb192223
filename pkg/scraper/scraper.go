package scraper

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/config"
	"bskyscraper/pkg/logger"
	"bskyscraper/pkg/metrics"
	"bskyscraper/pkg/ratelimit"
	"bskyscraper/pkg/report"
	"bskyscraper/pkg/storage"
	"bskyscraper/pkg/table"
)

// Outcome describes a finished run
type Outcome struct {
	Table *table.Table
	Path  string
	Stop  StopReason
	Calls int
}

// Scraper runs one collection: login, collect, build the table, write the
// CSV and print the report
type Scraper struct {
	config   *config.Config
	client   TimelineClient
	observer Observer
	out      io.Writer
	logger   logger.Logger
	now      func() time.Time
}

// New creates a Scraper backed by the Bluesky XRPC client
func New(cfg *config.Config) *Scraper {
	log := logger.GetLogger()
	limiter := ratelimit.NewWindow(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, cfg.RateLimit.Burst)
	client := bluesky.NewClient(cfg.Bluesky.Host, cfg.Bluesky.RequestTimeout, limiter, log)
	return NewWithClient(cfg, client, log)
}

// NewWithClient creates a Scraper using the given API client
func NewWithClient(cfg *config.Config, client TimelineClient, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		config: cfg,
		client: client,
		out:    os.Stdout,
		logger: log,
		now:    time.Now,
	}
}

// SetObserver attaches a progress observer to the collection loop
func (s *Scraper) SetObserver(o Observer) {
	s.observer = o
}

// SetOutput redirects the report, which goes to stdout by default
func (s *Scraper) SetOutput(w io.Writer) {
	s.out = w
}

// Options derives collector options from the configuration
func (s *Scraper) Options() Options {
	c := s.config.Collection
	return Options{
		MaxPosts:        c.MaxPosts,
		PostsPerRequest: c.PostsPerRequest,
		Delay:           c.RateLimitDelay,
		MaxRetries:      c.MaxRetries,
		Toggles: Toggles{
			Images:  c.CollectImages,
			Replies: c.CollectReplies,
			Quotes:  c.CollectQuotes,
		},
	}
}

// Run performs the whole collection. Login, table conversion and file
// write failures are returned; fetch failures only shorten the result.
func (s *Scraper) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	defer metrics.ObserveRunDuration(start)

	opts := s.Options()
	s.logger.InfoWithFields("Starting timeline collection", map[string]interface{}{
		"identifier":        s.config.Bluesky.Identifier,
		"max_posts":         opts.MaxPosts,
		"posts_per_request": opts.PostsPerRequest,
		"delay":             opts.Delay,
		"max_retries":       opts.MaxRetries,
	})

	collector := NewCollector(s.client, opts, s.logger)
	if s.observer != nil {
		collector.SetObserver(s.observer)
	}

	res, err := collector.Collect(ctx, s.config.Bluesky.Identifier, s.config.Bluesky.Password)
	if err != nil {
		return nil, err
	}
	metrics.IncRun(string(res.Stop))

	tbl, err := table.FromRecords(res.Records, Columns(opts.Toggles))
	if err != nil {
		s.logger.WithError(err).Error("Failed to build result table")
		return nil, fmt.Errorf("build table: %w", err)
	}

	writer, err := storage.NewCSVWriter(s.config.Output.Directory)
	if err != nil {
		s.logger.WithError(err).Error("Failed to prepare output directory")
		return nil, err
	}

	filename := storage.Filename(s.config.Output.Filename, s.config.Output.IncludeTimestamp, s.now())
	path, err := writer.Write(tbl, filename)
	if err != nil {
		s.logger.WithError(err).WithField("file", filename).Error("Failed to write CSV")
		return nil, fmt.Errorf("write csv: %w", err)
	}

	s.logger.InfoWithFields("Results saved", map[string]interface{}{
		"path":  path,
		"posts": tbl.Len(),
	})

	if err := report.Print(s.out, path, tbl.Summarize(), opts.Toggles.Images); err != nil {
		return nil, fmt.Errorf("print report: %w", err)
	}

	return &Outcome{
		Table: tbl,
		Path:  path,
		Stop:  res.Stop,
		Calls: res.Calls,
	}, nil
}
