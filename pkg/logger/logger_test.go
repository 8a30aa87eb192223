package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"bskyscraper/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer) *zerologLogger {
	return &zerologLogger{logger: zerolog.New(buf).Level(zerolog.DebugLevel)}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "chatty"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var console bytes.Buffer
			l, err := NewWithWriter(tt.cfg, &console)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestConsoleOutputRespectsLevel(t *testing.T) {
	var console bytes.Buffer
	l, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &console)
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestWithFieldsChaining(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf)

	l.WithField("calls", 3).
		WithFields(map[string]interface{}{"cursor": "abc", "exhausted": true}).
		Info("page fetched")

	out := buf.String()
	assert.Contains(t, out, "page fetched")
	assert.Contains(t, out, `"calls":3`)
	assert.Contains(t, out, `"cursor":"abc"`)
	assert.Contains(t, out, `"exhausted":true`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("fetch failed")
	assert.Contains(t, buf.String(), `"error":"connection reset"`)
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf)

	l.InfoWithFields("collection finished", map[string]interface{}{
		"posts": 120,
		"stop":  "target_reached",
	})

	out := buf.String()
	assert.Contains(t, out, `"posts":120`)
	assert.Contains(t, out, `"stop":"target_reached"`)
}

func TestLogRequestLevels(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "app.bsky.feed.getTimeline", 200, 0)
	LogRequest(tl, "GET", "app.bsky.feed.getTimeline", 429, 0)
	LogRequest(tl, "GET", "app.bsky.feed.getTimeline", 502, 0)

	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.True(t, tl.HasError())
}

func TestTestLoggerCapturesFieldsAndErrors(t *testing.T) {
	tl := NewTestLogger()
	err := errors.New("boom")

	tl.WithField("attempt", 1).WithError(err).WarnWithFields("retrying", map[string]interface{}{"max": 3})

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, 1, msgs[0].Fields["attempt"])
	assert.Equal(t, 3, msgs[0].Fields["max"])
	assert.Equal(t, err, msgs[0].Error)
	assert.True(t, tl.HasMessage("retrying"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetLogger(prev)

	tl := NewTestLogger()
	SetLogger(tl)

	Info("started")
	WithField("k", "v").Warn("careful")
	WithError(errors.New("bad")).Error("failed")

	assert.True(t, tl.HasMessage("started"))
	assert.True(t, tl.HasMessage("careful"))
	assert.True(t, tl.HasError())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("k", "v").Info("ignored")
	l.ErrorWithFields("ignored", nil)
}
