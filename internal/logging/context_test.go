package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/clinova/beacon/internal/logging"
	"github.com/stretchr/testify/require"
)

// logSink collects JSON log lines so tests can assert on their fields.
type logSink struct {
	t     *testing.T
	lines []string
}

func newLogSink(t *testing.T) *logSink {
	return &logSink{t: t}
}

func (s *logSink) Write(p []byte) (int, error) {
	s.t.Helper()
	s.lines = append(s.lines, string(p))
	return len(p), nil
}

// pop returns the fields of the most recent log line, minus the timestamp.
func (s *logSink) pop() (map[string]any, bool) {
	s.t.Helper()
	if len(s.lines) == 0 {
		return nil, false
	}

	last := s.lines[len(s.lines)-1]
	s.lines = s.lines[:len(s.lines)-1]

	var record map[string]any
	require.NoError(s.t, json.Unmarshal([]byte(last), &record))

	rawTime, ok := record["time"].(string)
	require.True(s.t, ok)
	loggedAt, err := time.Parse(time.RFC3339, rawTime)
	require.NoError(s.t, err)
	require.WithinDuration(s.t, time.Now(), loggedAt, 5*time.Second)
	delete(record, "time")

	return record, true
}

func (s *logSink) requireEmpty() {
	s.t.Helper()
	require.Empty(s.t, s.lines)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		ctx := logging.AddToContext(t.Context(), logger)
		require.Equal(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback without a request logger", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, logging.FromContext(t.Context()))
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	sink := newLogSink(t)
	rootLogger := slog.New(slog.NewJSONHandler(sink, nil)).With(slog.String("port", "settings"))
	ctx := logging.AddToContext(t.Context(), rootLogger)

	sink.requireEmpty()

	ctx = logging.AddMetaToContext(ctx, slog.String("clinicId", "clinic-1"))
	ctx = logging.AddMetaToContext(ctx, slog.String("patientId", "p-1"))
	logging.FromContext(ctx).Info("with meta")

	record, ok := sink.pop()
	require.True(t, ok)
	require.Equal(t, map[string]any{
		"level":     "INFO",
		"msg":       "with meta",
		"port":      "settings",
		"clinicId":  "clinic-1",
		"patientId": "p-1",
	}, record)

	// The root logger is unaffected
	rootLogger.Info("without meta")
	record, ok = sink.pop()
	require.True(t, ok)
	require.Equal(t, map[string]any{
		"level": "INFO",
		"msg":   "without meta",
		"port":  "settings",
	}, record)

	sink.requireEmpty()
}
