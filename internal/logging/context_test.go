package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := WithKind(WithRequestID(context.Background(), "req-1"), "flowchart")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "flowchart", Kind(ctx))

	empty := context.Background()
	assert.Equal(t, "", RequestID(empty))
	assert.Equal(t, "", Kind(empty))
}

func TestCorrelationHandler_InjectsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	ctx := WithKind(WithRequestID(context.Background(), "req-42"), "timeline")
	logger.InfoContext(ctx, "rendered")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"diagram_kind":"timeline"`)
	assert.Contains(t, out, `"msg":"rendered"`)
}

func TestCorrelationHandler_SkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "text")

	logger.InfoContext(context.Background(), "plain")
	assert.NotContains(t, buf.String(), "request_id")
	assert.NotContains(t, buf.String(), "diagram_kind")
}

func TestCorrelated_WrapsPlainLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Correlated(slog.New(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(WithRequestID(context.Background(), "abc"), "hello")
	assert.Contains(t, buf.String(), "request_id=abc")
	assert.NotContains(t, buf.String(), "diagram_kind")
}

func TestCorrelated_NoDoubleWrap(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	assert.Same(t, logger, Correlated(logger))

	Correlated(logger).InfoContext(WithRequestID(context.Background(), "once"), "hello")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"request_id"`)))
}

func TestCorrelated_Nil(t *testing.T) {
	assert.NotNil(t, Correlated(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")

	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
