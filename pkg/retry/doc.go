// Package retry holds the pause and failure-counting primitives used by the
// timeline collector: a context-aware Wait, backoff strategies and a
// consecutive-failure Budget.
package retry
