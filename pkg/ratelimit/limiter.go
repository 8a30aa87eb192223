package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing API requests
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Window limits requests to a fixed number per time window, allowing
// short bursts. It wraps a token bucket from golang.org/x/time/rate.
type Window struct {
	limiter *rate.Limiter
}

// NewWindow creates a limiter allowing requests per window with the given burst.
// A non-positive request count disables limiting.
func NewWindow(requests int, window time.Duration, burst int) *Window {
	if requests <= 0 || window <= 0 {
		return &Window{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	every := window / time.Duration(requests)
	return &Window{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Allow reports whether a request may proceed now
func (w *Window) Allow() bool {
	return w.limiter.Allow()
}

// Wait blocks until a token is available
func (w *Window) Wait(ctx context.Context) error {
	return w.limiter.Wait(ctx)
}

// Limit returns the steady-state rate in requests per second
func (w *Window) Limit() float64 {
	return float64(w.limiter.Limit())
}

// Unlimited returns a limiter that never blocks
func Unlimited() *Window {
	return NewWindow(0, 0, 0)
}
