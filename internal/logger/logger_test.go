package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_ProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production", Level: slog.LevelInfo})

	log.Info("novel indexed", "novel_id", "novel-1", "attempts", 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "novel indexed", record["msg"])
	assert.Equal(t, "novel-1", record["novel_id"])
	assert.Equal(t, float64(2), record["attempts"])
}

func TestPrettyHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development", Level: slog.LevelDebug})

	log.Component("indexsync").Warn("push failed", "novel_id", "novel-1", "reason", "index closed")

	line := buf.String()
	assert.Contains(t, line, "WRN")
	assert.Contains(t, line, "push failed")
	assert.Contains(t, line, "component=indexsync")
	assert.Contains(t, line, "novel_id=novel-1")
	assert.Contains(t, line, `reason="index closed"`)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Info("hidden")
	log.Debug("hidden too")
	assert.Empty(t, buf.String())

	log.Error("shown")
	assert.Contains(t, buf.String(), "ERR")
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.WithGroup("sync").Info("cycle", "pushed", 3, slog.Group("cursor", "advanced", true))

	line := buf.String()
	assert.Contains(t, line, "sync.pushed=3")
	assert.Contains(t, line, "sync.cursor.advanced=true")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.WithError(errors.New("boom")).Info("failed")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error("nothing to see")
	})
}
