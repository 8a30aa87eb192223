// Package scraper collects posts from the authenticated account's Bluesky
// home timeline.
//
// Collector pages through app.bsky.feed.getTimeline until the target count
// is reached, the feed is exhausted, or MaxRetries consecutive fetches
// fail. A successful page resets the failure count. Pauses between calls
// are RateLimitDelay after a success and twice that after a failure, and
// end early when the context is cancelled.
//
// Scraper wires the collector to the CSV writer and the report:
//
//	s := scraper.New(cfg)
//	s.SetObserver(ui.NewStatusTracker(cfg.Collection.MaxPosts))
//	outcome, err := s.Run(ctx)
package scraper
