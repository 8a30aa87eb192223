package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed API request at a level matching its status
func LogRequest(l Logger, method, endpoint string, statusCode int, elapsed time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": elapsed.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("API request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("API request client error", fields)
	default:
		l.DebugWithFields("API request completed", fields)
	}
}

// LogProgress logs how many posts have been collected toward the target
func LogProgress(l Logger, collected, target, calls int) {
	l.InfoWithFields("Collection progress", map[string]interface{}{
		"collected": collected,
		"target":    target,
		"calls":     calls,
	})
}

// NewNopLogger returns a Logger that discards everything
func NewNopLogger() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}
