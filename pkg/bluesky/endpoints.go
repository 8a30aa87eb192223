package bluesky

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultHost is the Bluesky PDS entryway
	DefaultHost = "https://bsky.social"

	// NSIDCreateSession is the XRPC method that exchanges credentials for a session
	NSIDCreateSession = "com.atproto.server.createSession"

	// NSIDGetTimeline is the XRPC method for the home timeline
	NSIDGetTimeline = "app.bsky.feed.getTimeline"

	// MaxTimelineLimit is the largest page size getTimeline accepts
	MaxTimelineLimit = 100
)

// XRPCURL builds the URL of an XRPC method on host
func XRPCURL(host, nsid string, params url.Values) string {
	u := strings.TrimRight(host, "/") + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// TimelineParams encodes getTimeline query parameters. An empty cursor
// requests the first page. limit is clamped to 1..MaxTimelineLimit.
func TimelineParams(limit int, cursor string) url.Values {
	if limit <= 0 {
		limit = 1
	} else if limit > MaxTimelineLimit {
		limit = MaxTimelineLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

// RecordKey returns the last path segment of an AT-URI
// ("at://did:plc:x/app.bsky.feed.post/3k2a" -> "3k2a").
func RecordKey(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// NormalizeIdentifier strips a leading "@" and surrounding spaces from a handle
func NormalizeIdentifier(identifier string) string {
	return strings.TrimPrefix(strings.TrimSpace(identifier), "@")
}
