package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{" warning ", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, levelFromString(tt.in))
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "info", "JSON")

	logger.Info("started", "port", "8080")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, "8080", entry["port"])
}
