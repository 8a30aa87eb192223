package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker reports collection progress on the terminal. It is driven
// by the collector through PageFetched, FetchFailed and RetriesExhausted.
type StatusTracker struct {
	mu        sync.Mutex
	out       io.Writer
	target    int
	collected int
	pages     int
	failures  int
	startTime time.Time
}

// NewStatusTracker creates a tracker for a run aiming at target posts
func NewStatusTracker(target int) *StatusTracker {
	return NewStatusTrackerTo(output, target)
}

// NewStatusTrackerTo is NewStatusTracker writing to out
func NewStatusTrackerTo(out io.Writer, target int) *StatusTracker {
	return &StatusTracker{
		out:       out,
		target:    target,
		startTime: time.Now(),
	}
}

// PageFetched records a successful page and redraws the progress line
func (st *StatusTracker) PageFetched(collected, items int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.collected = collected
	st.pages++
	if quiet {
		return
	}
	fmt.Fprintf(st.out, "\r%s %s page %d (+%d)",
		Green("[COLLECTING]"),
		st.bar(),
		st.pages,
		items)
}

// FetchFailed reports a failed fetch that will be retried
func (st *StatusTracker) FetchFailed(failures, max int, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.failures++
	if quiet {
		return
	}
	fmt.Fprintf(st.out, "\n%s\n", Yellow(fmt.Sprintf("Error occurred, retrying (%d/%d): %v", failures, max, err)))
}

// RetriesExhausted reports that the consecutive failure limit was reached
func (st *StatusTracker) RetriesExhausted(max int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if quiet {
		return
	}
	fmt.Fprintf(st.out, "\n%s\n", Red(fmt.Sprintf("Maximum retries (%d) reached. Stopping.", max)))
}

// Complete finishes the progress line with totals
func (st *StatusTracker) Complete() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if quiet {
		return
	}
	elapsed := time.Since(st.startTime)
	fmt.Fprintf(st.out, "\n%s Collected %d posts in %s across %d pages\n",
		Green("✓"),
		st.collected,
		formatDuration(elapsed),
		st.pages)
	if st.failures > 0 {
		fmt.Fprintf(st.out, "  %s %d fetches failed\n", Dim("•"), st.failures)
	}
}

// Collected returns the last reported record count
func (st *StatusTracker) Collected() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.collected
}

// Failures returns the total number of failed fetches reported
func (st *StatusTracker) Failures() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.failures
}

// GetElapsedTime returns the time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

func (st *StatusTracker) bar() string {
	filled := 0
	if st.target > 0 {
		filled = st.collected * barWidth / st.target
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s] %d/%d",
		strings.Repeat(ProgressBar, filled)+strings.Repeat(ProgressEmpty, barWidth-filled),
		st.collected, st.target)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
