// Package blueskytest provides a fake XRPC server for testing code that
// talks to Bluesky, in the spirit of net/http/httptest.
package blueskytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"bskyscraper/pkg/bluesky"
)

const accessToken = "test-access-jwt"

// Post describes one generated timeline entry
type Post struct {
	Handle      string
	DisplayName string
	Text        string
	CreatedAt   string
	Likes       int
	Reposts     int
	Replies     int
	Images      int
	QuoteURI    string
	WithMedia   bool
	RecordKey   string
}

// Server fakes com.atproto.server.createSession and app.bsky.feed.getTimeline.
// Cursors are decimal offsets into Posts.
type Server struct {
	Identifier string
	Password   string

	server *httptest.Server

	mu        sync.RWMutex
	posts     []Post
	failures  map[string][]int
	delays    map[string]time.Duration
	cursors   []string
	rateEvery int

	requestCount  int32
	rateLimitHits int32
}

// NewServer starts a server accepting identifier and password over posts
func NewServer(identifier, password string, posts []Post) *Server {
	s := &Server{
		Identifier: identifier,
		Password:   password,
		posts:      posts,
		failures:   make(map[string][]int),
		delays:     make(map[string]time.Duration),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/"+bluesky.NSIDCreateSession, s.handleCreateSession)
	mux.HandleFunc("/xrpc/"+bluesky.NSIDGetTimeline, s.handleGetTimeline)
	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL to use as the client host
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts down the server
func (s *Server) Close() {
	s.server.Close()
}

// FailNext makes the next len(codes) calls to nsid fail with those status
// codes, in order
func (s *Server) FailNext(nsid string, codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[nsid] = append(s.failures[nsid], codes...)
}

// SetDelay delays every response of nsid
func (s *Server) SetDelay(nsid string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[nsid] = d
}

// RateLimitEvery answers every nth request with 429; 0 disables
func (s *Server) RateLimitEvery(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateEvery = n
}

// RequestCount returns the number of requests served
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

// RateLimitHits returns the number of 429 responses sent
func (s *Server) RateLimitHits() int {
	return int(atomic.LoadInt32(&s.rateLimitHits))
}

// Cursors returns the cursor of every getTimeline request, "" for the first
// page, including requests that were answered with an error
func (s *Server) Cursors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.cursors...)
}

// intercept applies delays, injected failures and rate limiting. It reports
// whether the response was already written.
func (s *Server) intercept(w http.ResponseWriter, nsid string) bool {
	n := atomic.AddInt32(&s.requestCount, 1)

	s.mu.Lock()
	delay := s.delays[nsid]
	code := 0
	if queue := s.failures[nsid]; len(queue) > 0 {
		code, s.failures[nsid] = queue[0], queue[1:]
	}
	rateEvery := s.rateEvery
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if code == 0 && rateEvery > 0 && int(n)%rateEvery == 0 {
		atomic.AddInt32(&s.rateLimitHits, 1)
		code = http.StatusTooManyRequests
	}
	if code == 0 {
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	if code == http.StatusTooManyRequests {
		w.Header().Set("RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorName(code),
		"message": http.StatusText(code),
	})
	return true
}

func errorName(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "AuthenticationRequired"
	case http.StatusTooManyRequests:
		return "RateLimitExceeded"
	case http.StatusBadRequest:
		return "InvalidRequest"
	default:
		return "InternalServerError"
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.intercept(w, bluesky.NSIDCreateSession) {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if body.Identifier != s.Identifier || body.Password != s.Password {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "AuthenticationRequired",
			"message": "Invalid identifier or password",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"accessJwt":  accessToken,
		"refreshJwt": "test-refresh-jwt",
		"handle":     s.Identifier,
		"did":        "did:plc:testaccount",
	})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	s.mu.Lock()
	s.cursors = append(s.cursors, cursor)
	s.mu.Unlock()

	if s.intercept(w, bluesky.NSIDGetTimeline) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+accessToken {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "AuthenticationRequired",
			"message": "Authentication Required",
		})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > bluesky.MaxTimelineLimit {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "InvalidRequest",
			"message": "limit must be between 1 and 100",
		})
		return
	}

	offset := 0
	if cursor != "" {
		if offset, err = strconv.Atoi(cursor); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	s.mu.RLock()
	total := len(s.posts)
	end := offset + limit
	if end > total {
		end = total
	}
	feed := make([]map[string]interface{}, 0, limit)
	for i := offset; i < end; i++ {
		feed = append(feed, map[string]interface{}{"post": postView(i, s.posts[i])})
	}
	s.mu.RUnlock()

	resp := map[string]interface{}{"feed": feed}
	if end < total {
		resp["cursor"] = strconv.Itoa(end)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// postView renders p the way the AppView hydrates a post
func postView(i int, p Post) map[string]interface{} {
	rkey := p.RecordKey
	if rkey == "" {
		rkey = fmt.Sprintf("3k%05d", i)
	}
	did := "did:plc:" + p.Handle

	record := map[string]interface{}{
		"$type":     "app.bsky.feed.post",
		"text":      p.Text,
		"createdAt": p.CreatedAt,
	}
	quote := map[string]string{"uri": p.QuoteURI, "cid": "bafyquote"}
	switch {
	case p.QuoteURI != "" && p.WithMedia:
		record["embed"] = map[string]interface{}{
			"$type":  bluesky.TypeEmbedRecordWithMedia,
			"record": map[string]interface{}{"record": quote},
		}
	case p.QuoteURI != "":
		record["embed"] = map[string]interface{}{
			"$type":  bluesky.TypeEmbedRecord,
			"record": quote,
		}
	}

	view := map[string]interface{}{
		"uri":         fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey),
		"cid":         "bafy" + rkey,
		"author":      map[string]string{"did": did, "handle": p.Handle, "displayName": p.DisplayName},
		"record":      record,
		"likeCount":   p.Likes,
		"repostCount": p.Reposts,
		"replyCount":  p.Replies,
		"indexedAt":   p.CreatedAt,
	}

	if p.Images > 0 {
		images := make([]map[string]string, p.Images)
		for j := range images {
			images[j] = map[string]string{
				"thumb":    fmt.Sprintf("https://cdn.example/%s/%d_thumb.jpg", rkey, j),
				"fullsize": fmt.Sprintf("https://cdn.example/%s/%d.jpg", rkey, j),
				"alt":      "",
			}
		}
		view["embed"] = map[string]interface{}{
			"$type":  bluesky.TypeEmbedImagesView,
			"images": images,
		}
	}
	return view
}

// GeneratePosts builds n posts across five authors. Every third post has
// two images and every fourth quotes another post.
func GeneratePosts(n int) []Post {
	posts := make([]Post, n)
	start := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	for i := range posts {
		author := i % 5
		p := Post{
			Handle:      fmt.Sprintf("user%d.bsky.social", author),
			DisplayName: fmt.Sprintf("User %d", author),
			Text:        fmt.Sprintf("post number %d", i),
			CreatedAt:   start.Add(-time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05.000Z"),
			Likes:       i % 10,
			Reposts:     i % 3,
			Replies:     1,
		}
		if i%3 == 0 {
			p.Images = 2
		}
		if i%4 == 0 {
			p.QuoteURI = fmt.Sprintf("at://did:plc:quoted/app.bsky.feed.post/q%d", i)
		}
		posts[i] = p
	}
	return posts
}
