package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		warnOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"", false, true},
		{"bogus", false, true},
	}

	for _, tc := range tests {
		t.Run("level_"+tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, Config{Level: tc.level})

			ctx := context.Background()
			assert.Equal(t, tc.debugOn, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tc.warnOn, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestNewLogger_JSONFormatAndService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Config{Format: "json", Service: "quizgen-worker"})

	logger.Info("scan completed", "queued", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "scan completed", record["msg"])
	assert.Equal(t, "quizgen-worker", record["service"])
	assert.Equal(t, float64(3), record["queued"])
}

func TestNewLogger_TextFormatByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Config{})

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Error(t, json.Unmarshal(buf.Bytes(), &map[string]any{}))
}
