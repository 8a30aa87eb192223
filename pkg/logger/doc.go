// Package logger provides the structured logging interface used across
// bskyscraper. It wraps zerolog with a colored console writer on stderr and
// optional JSON file output.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("identifier", cfg.Bluesky.Identifier).Info("Logged in")
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
