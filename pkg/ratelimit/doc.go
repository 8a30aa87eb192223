// Package ratelimit paces requests to the Bluesky API.
//
// The default window matches the service's published per-IP ceiling, so it
// only comes into play when the collection delay is configured very low.
package ratelimit
