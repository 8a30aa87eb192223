package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bskyscraper/pkg/errors"
	"bskyscraper/pkg/logger"
	"bskyscraper/pkg/metrics"
	"bskyscraper/pkg/ratelimit"
)

const userAgent = "bskyscraper/1.0 (+https://github.com/bskyscraper)"

// Client talks to a Bluesky PDS over XRPC
type Client struct {
	httpClient *http.Client
	host       string
	limiter    ratelimit.Limiter
	logger     logger.Logger
	session    *Session
}

// NewClient creates an XRPC client for host. A nil limiter means unlimited.
func NewClient(host string, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	if host == "" {
		host = DefaultHost
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		host:       host,
		limiter:    limiter,
		logger:     log.WithField("component", "bluesky"),
	}
}

// Session returns the current session, or nil before Login
func (c *Client) Session() *Session {
	return c.session
}

// Login creates a session with an identifier (handle, DID or email) and an
// app password. The access token is used for all later requests.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = NormalizeIdentifier(identifier)
	if identifier == "" || password == "" {
		return nil, errors.New(errors.ErrorTypeAuth, 0, "identifier and password are required")
	}

	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var session Session
	if err := c.call(ctx, http.MethodPost, NSIDCreateSession, nil, body, &session); err != nil {
		return nil, err
	}
	if session.AccessJwt == "" {
		return nil, errors.New(errors.ErrorTypeAuth, http.StatusOK, "session response carried no access token")
	}

	c.session = &session
	c.logger.InfoWithFields("session created", map[string]interface{}{
		"handle": session.Handle,
		"did":    session.DID,
	})
	return &session, nil
}

// GetTimeline fetches one page of the home timeline. An empty cursor
// requests the first page.
func (c *Client) GetTimeline(ctx context.Context, limit int, cursor string) (*TimelinePage, error) {
	if c.session == nil {
		return nil, errors.New(errors.ErrorTypeAuth, 0, "not logged in")
	}

	var page TimelinePage
	if err := c.call(ctx, http.MethodGet, NSIDGetTimeline, TimelineParams(limit, cursor), nil, &page); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("timeline page fetched", map[string]interface{}{
		"items":       len(page.Feed),
		"next_cursor": page.Cursor,
	})
	return &page, nil
}

// call performs one XRPC request and decodes a JSON response into target
func (c *Client) call(ctx context.Context, method, nsid string, params url.Values, in, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.New(errors.ErrorTypeUnknown, 0, "failed to encode request: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, XRPCURL(c.host, nsid, params), reqBody)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil && nsid != NSIDCreateSession {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessJwt)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveRequest(nsid, 0, elapsed)
		c.logger.WithError(err).WarnWithFields("XRPC request failed", map[string]interface{}{
			"nsid":     nsid,
			"duration": elapsed,
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	metrics.ObserveRequest(nsid, resp.StatusCode, elapsed)
	logger.LogRequest(c.logger, method, nsid, resp.StatusCode, elapsed)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := checkResponseStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse XRPC response", map[string]interface{}{
			"nsid":         nsid,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps a non-2xx response to a typed error, keeping the
// XRPC error name and message when the body carries them
func checkResponseStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var xe xrpcError
	_ = json.Unmarshal(body, &xe)

	message := xe.Message
	if message == "" {
		message = fmt.Sprintf("unexpected status code: %d", status)
	}

	// createSession reports bad credentials as 401 AuthenticationRequired,
	// expired tokens come back as 400 ExpiredToken
	errType := errors.TypeForStatus(status)
	if xe.Error == "ExpiredToken" || xe.Error == "InvalidToken" || xe.Error == "AuthenticationRequired" {
		errType = errors.ErrorTypeAuth
	}

	return &errors.Error{
		Type:      errType,
		Message:   message,
		Code:      status,
		XRPCError: xe.Error,
	}
}
