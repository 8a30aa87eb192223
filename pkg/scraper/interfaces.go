package scraper

import (
	"context"

	"bskyscraper/pkg/bluesky"
)

// TimelineClient is the part of the Bluesky API the collector consumes
type TimelineClient interface {
	Login(ctx context.Context, identifier, password string) (*bluesky.Session, error)
	GetTimeline(ctx context.Context, limit int, cursor string) (*bluesky.TimelinePage, error)
}

// Observer is notified of collection progress. ui.StatusTracker implements it.
type Observer interface {
	PageFetched(collected, items int)
	FetchFailed(failures, max int, err error)
	RetriesExhausted(max int)
}

type nopObserver struct{}

func (nopObserver) PageFetched(int, int)        {}
func (nopObserver) FetchFailed(int, int, error) {}
func (nopObserver) RetriesExhausted(int)        {}
