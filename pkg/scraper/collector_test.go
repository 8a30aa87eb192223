package scraper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/errors"
	"bskyscraper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimeline serves a feed of total posts in pages, failing the calls
// listed in failOn (1-based call numbers)
type fakeTimeline struct {
	total    int
	failOn   map[int]error
	loginErr error

	calls   int
	limits  []int
	cursors []string
}

func (f *fakeTimeline) Login(ctx context.Context, identifier, password string) (*bluesky.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &bluesky.Session{AccessJwt: "jwt", Handle: identifier}, nil
}

func (f *fakeTimeline) GetTimeline(ctx context.Context, limit int, cursor string) (*bluesky.TimelinePage, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	f.cursors = append(f.cursors, cursor)

	if err, ok := f.failOn[f.calls]; ok {
		return nil, err
	}

	offset := 0
	if cursor != "" {
		_, _ = fmt.Sscanf(cursor, "offset-%d", &offset)
	}

	page := &bluesky.TimelinePage{}
	for i := offset; i < offset+limit && i < f.total; i++ {
		page.Feed = append(page.Feed, bluesky.FeedViewPost{Post: fakePost(i)})
	}
	if next := offset + limit; next < f.total {
		page.Cursor = fmt.Sprintf("offset-%d", next)
	}
	return page, nil
}

func fakePost(i int) bluesky.PostView {
	return bluesky.PostView{
		URI:         fmt.Sprintf("at://did:plc:author%d/app.bsky.feed.post/post%d", i%3, i),
		Author:      bluesky.Author{Handle: fmt.Sprintf("author%d.bsky.social", i%3), DisplayName: "Author"},
		Record:      bluesky.PostRecord{Text: fmt.Sprintf("post %d", i), CreatedAt: "2024-01-02T03:04:05Z"},
		LikeCount:   i,
		RepostCount: 1,
		ReplyCount:  2,
	}
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestCollector(client TimelineClient, opts Options) (*Collector, *sleepRecorder) {
	c := NewCollector(client, opts, logger.NewNopLogger())
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func defaultOptions() Options {
	return Options{
		MaxPosts:        120,
		PostsPerRequest: 50,
		Delay:           time.Second,
		MaxRetries:      3,
		Toggles:         Toggles{Images: true, Replies: true, Quotes: true},
	}
}

func TestCollectTruncatesLastPageAtTarget(t *testing.T) {
	client := &fakeTimeline{total: 500}
	c, sleeps := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Len(t, res.Records, 120)
	assert.Equal(t, 3, res.Calls)
	assert.Equal(t, []int{50, 50, 50}, client.limits)
	assert.Equal(t, []string{"", "offset-50", "offset-100"}, client.cursors)
	assert.Equal(t, StopTargetReached, res.Stop)
	assert.Equal(t, "post119", res.Records[119].PostID)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeps.delays)
}

func TestCollectStopsWhenFeedExhausted(t *testing.T) {
	client := &fakeTimeline{total: 70}
	c, _ := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Len(t, res.Records, 70)
	assert.Equal(t, 2, res.Calls)
	assert.Equal(t, StopFeedExhausted, res.Stop)
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	client := &fakeTimeline{total: 0}
	c, _ := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Calls)
	assert.Equal(t, StopFeedExhausted, res.Stop)
}

func TestCollectAllFetchesFail(t *testing.T) {
	boom := errors.New(errors.ErrorTypeServerError, 502, "bad gateway")
	client := &fakeTimeline{total: 500, failOn: map[int]error{1: boom, 2: boom, 3: boom, 4: boom}}
	c, sleeps := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	assert.Equal(t, 3, res.Calls, "stops after exactly MaxRetries consecutive failures")
	assert.Equal(t, StopRetriesExhausted, res.Stop)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeps.delays)
}

func TestCollectRetriesSameCursorAndResetsBudget(t *testing.T) {
	boom := fmt.Errorf("connection reset")
	// two failures, a success, two more failures: never three in a row
	client := &fakeTimeline{total: 500, failOn: map[int]error{2: boom, 3: boom, 5: boom, 6: boom}}
	c, _ := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Len(t, res.Records, 120)
	assert.Equal(t, 7, res.Calls)
	assert.Equal(t, []string{"", "offset-50", "offset-50", "offset-50", "offset-100", "offset-100", "offset-100"}, client.cursors)
	assert.Equal(t, StopTargetReached, res.Stop)
}

func TestCollectKeepsRecordsOnRetryExhaustion(t *testing.T) {
	boom := fmt.Errorf("timeout")
	client := &fakeTimeline{total: 500, failOn: map[int]error{2: boom, 3: boom, 4: boom}}
	c, _ := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Len(t, res.Records, 50)
	assert.Equal(t, StopRetriesExhausted, res.Stop)
}

func TestCollectLoginFailureIsFatal(t *testing.T) {
	client := &fakeTimeline{total: 10, loginErr: errors.New(errors.ErrorTypeAuth, 401, "Invalid identifier or password")}
	c, _ := newTestCollector(client, defaultOptions())

	res, err := c.Collect(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 0, client.calls, "no fetch after a failed login")
}

func TestCollectCancelledDuringPause(t *testing.T) {
	client := &fakeTimeline{total: 500}
	ctx, cancel := context.WithCancel(context.Background())

	c := NewCollector(client, defaultOptions(), logger.NewNopLogger())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	res, err := c.Collect(ctx, "alice", "pw")
	require.NoError(t, err)

	assert.Len(t, res.Records, 50)
	assert.Equal(t, StopCancelled, res.Stop)
}

func TestCollectNeverExceedsMaxPosts(t *testing.T) {
	for _, tc := range []struct{ max, per, total int }{
		{1, 50, 500}, {49, 50, 500}, {50, 50, 500}, {51, 50, 500}, {100, 7, 30}, {10, 100, 3},
	} {
		opts := defaultOptions()
		opts.MaxPosts, opts.PostsPerRequest = tc.max, tc.per

		c, _ := newTestCollector(&fakeTimeline{total: tc.total}, opts)
		res, err := c.Collect(context.Background(), "alice", "pw")
		require.NoError(t, err)

		want := tc.max
		if tc.total < want {
			want = tc.total
		}
		assert.Len(t, res.Records, want, "max=%d per=%d total=%d", tc.max, tc.per, tc.total)
	}
}

type recordingObserver struct {
	pages, failures, exhausted int
}

func (o *recordingObserver) PageFetched(collected, items int)         { o.pages++ }
func (o *recordingObserver) FetchFailed(failures, max int, err error) { o.failures++ }
func (o *recordingObserver) RetriesExhausted(max int)                 { o.exhausted++ }

func TestCollectNotifiesObserver(t *testing.T) {
	boom := fmt.Errorf("timeout")
	client := &fakeTimeline{total: 500, failOn: map[int]error{2: boom, 3: boom, 4: boom}}
	c, _ := newTestCollector(client, defaultOptions())
	obs := &recordingObserver{}
	c.SetObserver(obs)

	_, err := c.Collect(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Equal(t, 1, obs.pages)
	assert.Equal(t, 2, obs.failures)
	assert.Equal(t, 1, obs.exhausted)
}
