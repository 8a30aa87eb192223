package scraper

import (
	"context"
	"fmt"
	"time"

	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/errors"
	"bskyscraper/pkg/logger"
	"bskyscraper/pkg/metrics"
	"bskyscraper/pkg/models"
	"bskyscraper/pkg/retry"
)

// StopReason tells why the collection loop ended
type StopReason string

const (
	StopTargetReached    StopReason = "target_reached"
	StopFeedExhausted    StopReason = "feed_exhausted"
	StopRetriesExhausted StopReason = "retries_exhausted"
	StopCancelled        StopReason = "cancelled"
)

// Options are the collector's run parameters
type Options struct {
	MaxPosts        int
	PostsPerRequest int
	Delay           time.Duration
	MaxRetries      int
	Toggles         Toggles
}

// FetchResult is the outcome of one timeline call: either a page or an error
type FetchResult struct {
	Page *bluesky.TimelinePage
	Err  error
}

// Result is what a collection run accumulated
type Result struct {
	Records []models.PostRecord
	Stop    StopReason
	Calls   int
}

// Collector runs the fetch-accumulate loop against the home timeline
type Collector struct {
	client   TimelineClient
	opts     Options
	observer Observer
	logger   logger.Logger
	sleep    func(context.Context, time.Duration) error
}

// NewCollector creates a collector
func NewCollector(client TimelineClient, opts Options, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		client:   client,
		opts:     opts,
		observer: nopObserver{},
		logger:   log.WithField("component", "collector"),
		sleep:    retry.Wait,
	}
}

// SetObserver attaches a progress observer
func (c *Collector) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	c.observer = o
}

// Collect logs in and pages through the timeline until MaxPosts records are
// held, the feed runs out, or MaxRetries consecutive fetches fail. Only a
// login failure is returned as an error; the other endings are reported in
// Result.Stop together with whatever was accumulated.
func (c *Collector) Collect(ctx context.Context, identifier, password string) (*Result, error) {
	if _, err := c.client.Login(ctx, identifier, password); err != nil {
		c.logger.WithError(err).Error("Login failed")
		return nil, fmt.Errorf("login: %w", err)
	}

	res := &Result{Records: []models.PostRecord{}}
	budget := retry.NewBudget(c.opts.MaxRetries)
	backoff := retry.FailureBackoff(c.opts.Delay)
	cursor := ""

	for len(res.Records) < c.opts.MaxPosts {
		fr := c.fetch(ctx, cursor)
		res.Calls++

		if fr.Err != nil {
			if ctx.Err() != nil {
				res.Stop = StopCancelled
				break
			}

			metrics.IncFetchFailure(string(errors.TypeOf(fr.Err)))
			if budget.Fail() {
				c.logger.WithError(fr.Err).WarnWithFields("Maximum retries reached, stopping", map[string]interface{}{
					"max_retries": budget.Max(),
					"collected":   len(res.Records),
				})
				c.observer.RetriesExhausted(budget.Max())
				res.Stop = StopRetriesExhausted
				break
			}

			c.logger.WithError(fr.Err).WarnWithFields("Timeline fetch failed, retrying", map[string]interface{}{
				"attempt":     budget.Failures(),
				"max_retries": budget.Max(),
				"cursor":      cursor,
			})
			c.observer.FetchFailed(budget.Failures(), budget.Max(), fr.Err)

			if err := c.sleep(ctx, backoff.NextDelay(budget.Failures())); err != nil {
				res.Stop = StopCancelled
				break
			}
			continue
		}

		budget.Reset()
		added := c.appendPage(res, fr.Page)
		cursor = fr.Page.Cursor

		c.observer.PageFetched(len(res.Records), added)
		c.logger.DebugWithFields("Page accumulated", map[string]interface{}{
			"items":     len(fr.Page.Feed),
			"added":     added,
			"collected": len(res.Records),
			"cursor":    cursor,
		})

		if len(res.Records) >= c.opts.MaxPosts {
			res.Stop = StopTargetReached
			break
		}
		if cursor == "" || len(fr.Page.Feed) == 0 {
			res.Stop = StopFeedExhausted
			break
		}

		if err := c.sleep(ctx, c.opts.Delay); err != nil {
			res.Stop = StopCancelled
			break
		}
	}

	if res.Stop == "" {
		res.Stop = StopTargetReached
	}

	c.logger.InfoWithFields("Collection finished", map[string]interface{}{
		"collected": len(res.Records),
		"calls":     res.Calls,
		"stop":      string(res.Stop),
	})
	return res, nil
}

// fetch performs one timeline call
func (c *Collector) fetch(ctx context.Context, cursor string) FetchResult {
	metrics.FetchCalls.Inc()
	page, err := c.client.GetTimeline(ctx, c.opts.PostsPerRequest, cursor)
	if err != nil {
		return FetchResult{Err: err}
	}
	if page == nil {
		return FetchResult{Err: errors.New(errors.ErrorTypeParsing, 0, "empty timeline response")}
	}
	return FetchResult{Page: page}
}

// appendPage flattens page items into res until MaxPosts is reached and
// returns how many were added
func (c *Collector) appendPage(res *Result, page *bluesky.TimelinePage) int {
	added := 0
	for _, item := range page.Feed {
		if len(res.Records) >= c.opts.MaxPosts {
			break
		}
		res.Records = append(res.Records, Flatten(item.Post, c.opts.Toggles))
		added++
	}
	metrics.PostsCollected.Add(float64(added))
	return added
}
