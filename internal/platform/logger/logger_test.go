// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, ok := logger.ParseLevel(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantOK, ok)
		})
	}
}

// Setup replaces the slog default, so these subtests run sequentially.
func TestSetup(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	t.Run("filters below configured level", func(t *testing.T) {
		buf := &logger.TestLogBuffer{}
		l, err := logger.Setup(logger.LoggerConfig{Level: "warn", Output: buf})
		require.NoError(t, err)
		require.NotNil(t, l)

		l.Info("hidden")
		l.Warn("shown", slog.String("component", "test"))

		entries := buf.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "shown", entries[0]["msg"])
		assert.Equal(t, "WARN", entries[0]["level"])
		assert.Equal(t, "test", entries[0]["component"])
	})

	t.Run("installs default logger", func(t *testing.T) {
		buf := &logger.TestLogBuffer{}
		_, err := logger.Setup(logger.LoggerConfig{Level: "debug", Output: buf})
		require.NoError(t, err)

		slog.Debug("through default")
		assert.Contains(t, buf.String(), "through default")
	})

	t.Run("invalid level falls back to info with a warning", func(t *testing.T) {
		buf := &logger.TestLogBuffer{}
		l, err := logger.Setup(logger.LoggerConfig{Level: "chatty", Output: buf})
		require.NoError(t, err)

		l.Debug("not shown")
		entries := buf.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "invalid log level configured, using default level", entries[0]["msg"])
		assert.Equal(t, "chatty", entries[0]["configured_level"])
	})
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	requestLogger, requestBuf := logger.NewTestLogger()
	componentLogger, componentBuf := logger.NewTestLogger()

	t.Run("stored logger wins", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), requestLogger)
		logger.FromContextOrDefault(ctx, componentLogger).Info("request scoped")
		assert.Contains(t, requestBuf.String(), "request scoped")
		assert.NotContains(t, componentBuf.String(), "request scoped")
	})

	t.Run("fallback used when context is empty", func(t *testing.T) {
		logger.FromContextOrDefault(context.Background(), componentLogger).Info("component scoped")
		assert.Contains(t, componentBuf.String(), "component scoped")
	})

	t.Run("nil fallback gives default", func(t *testing.T) {
		assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
		assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	})
}
