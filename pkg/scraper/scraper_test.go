package scraper

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/bluesky/blueskytest"
	"bskyscraper/pkg/config"
	"bskyscraper/pkg/logger"
	"bskyscraper/pkg/ratelimit"
)

func testConfig(t *testing.T, host string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bluesky.Host = host
	cfg.Bluesky.Identifier = "me.bsky.social"
	cfg.Bluesky.Password = "app-pass"
	cfg.Bluesky.RequestTimeout = 5 * time.Second
	cfg.Collection.MaxPosts = 120
	cfg.Collection.PostsPerRequest = 50
	cfg.Collection.RateLimitDelay = time.Millisecond
	cfg.Output.Directory = filepath.Join(t.TempDir(), "data")
	return cfg
}

func newServer(t *testing.T, posts int) *blueskytest.Server {
	s := blueskytest.NewServer("me.bsky.social", "app-pass", blueskytest.GeneratePosts(posts))
	t.Cleanup(s.Close)
	return s
}

func newTestScraper(cfg *config.Config) (*Scraper, *bytes.Buffer) {
	log := logger.NewNopLogger()
	client := bluesky.NewClient(cfg.Bluesky.Host, cfg.Bluesky.RequestTimeout, ratelimit.Unlimited(), log)
	s := NewWithClient(cfg, client, log)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) }

	var out bytes.Buffer
	s.SetOutput(&out)
	return s, &out
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunEndToEnd(t *testing.T) {
	server := newServer(t, 500)
	cfg := testConfig(t, server.URL())
	s, out := newTestScraper(cfg)

	outcome, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Calls)
	assert.Equal(t, StopTargetReached, outcome.Stop)
	assert.Equal(t, []string{"", "50", "100"}, server.Cursors())
	assert.Equal(t, filepath.Join(cfg.Output.Directory, "bluesky_posts_20240102_030405.csv"), outcome.Path)

	rows := readCSV(t, outcome.Path)
	require.Len(t, rows, 121)
	assert.Equal(t, []string{
		"post_id", "author", "author_display_name", "text", "created_at", "likes", "reposts",
		"replies", "has_images", "image_count", "is_quote", "quoted_post",
	}, rows[0])
	assert.Equal(t, []string{
		"3k00000", "user0.bsky.social", "User 0", "post number 0", "2024-01-02T03:00:00Z", "0", "0",
		"1", "True", "2", "True", "at://did:plc:quoted/app.bsky.feed.post/q0",
	}, rows[1])
	assert.Equal(t, "False", rows[2][8])
	assert.Equal(t, "", rows[2][11], "non-quote rows leave quoted_post empty")

	summary := outcome.Table.Summarize()
	assert.Equal(t, 120, summary.TotalPosts)
	assert.Equal(t, 5, summary.UniqueAuthors)
	assert.Equal(t, 40, summary.PostsWithImages)

	report := out.String()
	assert.Contains(t, report, "Successfully saved 120 posts to "+outcome.Path)
	assert.Contains(t, report, "Unique authors: 5")
	assert.Contains(t, report, "Posts with images: 40")
	assert.Contains(t, report, fmt.Sprintf("Average likes per post: %.2f", summary.AvgLikes))
}

func TestRunTogglesOffRemoveColumns(t *testing.T) {
	server := newServer(t, 30)
	cfg := testConfig(t, server.URL())
	cfg.Collection.CollectImages = false
	cfg.Collection.CollectReplies = false
	cfg.Collection.CollectQuotes = false
	cfg.Output.IncludeTimestamp = false
	s, out := newTestScraper(cfg)

	outcome, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopFeedExhausted, outcome.Stop)
	assert.Equal(t, filepath.Join(cfg.Output.Directory, "bluesky_posts.csv"), outcome.Path)

	rows := readCSV(t, outcome.Path)
	assert.Equal(t, []string{"post_id", "author", "author_display_name", "text", "created_at", "likes", "reposts"}, rows[0])
	assert.Len(t, rows, 31)
	assert.NotContains(t, out.String(), "Posts with images")
}

func TestRunEmptyFeedWritesHeader(t *testing.T) {
	server := newServer(t, 0)
	cfg := testConfig(t, server.URL())
	s, out := newTestScraper(cfg)

	outcome, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopFeedExhausted, outcome.Stop)
	rows := readCSV(t, outcome.Path)
	require.Len(t, rows, 1)
	assert.Equal(t, "is_quote", rows[0][len(rows[0])-1])
	assert.Contains(t, out.String(), "Average likes per post: 0.00")
}

func TestRunLoginFailure(t *testing.T) {
	server := newServer(t, 10)
	cfg := testConfig(t, server.URL())
	cfg.Bluesky.Password = "wrong"
	s, out := newTestScraper(cfg)

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid identifier or password")
	assert.Empty(t, out.String())
	assert.Empty(t, server.Cursors(), "no timeline request after a failed login")

	_, statErr := os.Stat(cfg.Output.Directory)
	assert.True(t, os.IsNotExist(statErr), "no output is written after a failed login")
}

func TestRunRecoversFromTransientFailures(t *testing.T) {
	server := newServer(t, 120)
	server.FailNext(bluesky.NSIDGetTimeline, http.StatusBadGateway, http.StatusTooManyRequests)
	cfg := testConfig(t, server.URL())
	s, _ := newTestScraper(cfg)

	outcome, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopTargetReached, outcome.Stop)
	assert.Equal(t, 120, outcome.Table.Len())
	assert.Equal(t, 5, outcome.Calls)
	assert.Equal(t, []string{"", "", "", "50", "100"}, server.Cursors(), "failed fetches retry the same cursor")
}

func TestRunServerDownProducesEmptyResult(t *testing.T) {
	server := newServer(t, 10)
	server.FailNext(bluesky.NSIDGetTimeline,
		http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	cfg := testConfig(t, server.URL())
	s, _ := newTestScraper(cfg)

	outcome, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopRetriesExhausted, outcome.Stop)
	assert.Len(t, server.Cursors(), 3)
	assert.Equal(t, 0, outcome.Table.Len())

	rows := readCSV(t, outcome.Path)
	assert.Len(t, rows, 1, "an exhausted run still writes the header")
}
