package retry

import (
	"context"
	"time"
)

// BackoffStrategy decides how long to pause before the next attempt
type BackoffStrategy interface {
	// NextDelay returns the pause after the given consecutive failure (1-based)
	NextDelay(failure int) time.Duration
}

// ConstantBackoff pauses for the same duration after every failure
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns Delay for any failure count above zero
func (cb ConstantBackoff) NextDelay(failure int) time.Duration {
	if failure <= 0 {
		return 0
	}
	return cb.Delay
}

// FailureBackoff is the collector's pause after a failed fetch: twice the
// configured inter-request delay.
func FailureBackoff(delay time.Duration) ConstantBackoff {
	return ConstantBackoff{Delay: 2 * delay}
}

// Wait waits for the specified duration or until the context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
