package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceID(ctx))

	ctx = WithTraceID(ctx, "abc-123")
	assert.Equal(t, "abc-123", TraceID(ctx))
}

func TestNewLogger_ConsoleHasNoCloser(t *testing.T) {
	logger, closer, err := NewLogger(LoggingSettings{Level: "info", Output: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Nil(t, closer)
}

func TestNewLogger_FileOutputInjectsTraceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, closer, err := NewLogger(LoggingSettings{Level: "debug", Output: "file", FilePath: path})
	require.NoError(t, err)
	require.NotNil(t, closer)

	ctx := WithTraceID(context.Background(), "trace-9")
	logger.InfoContext(ctx, "hello", slog.String("k", "v"))
	require.NoError(t, closer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "expected one log line")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "trace-9", record["trace_id"])
	assert.Equal(t, "v", record["k"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closer, err := NewLogger(LoggingSettings{Level: "error", Output: "file", FilePath: path})
	require.NoError(t, err)

	logger.Info("filtered out")
	logger.Error("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "filtered out")
	assert.Contains(t, string(data), "kept")
}
