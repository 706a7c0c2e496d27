package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructuredLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	logger.Info("hello", slog.String("stage", "cleandata"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "cleandata", entry["stage"])
}

func TestLogErrorIncludesErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogError(logger, "stage failed", errors.New("boom"), slog.String("stage", "buildfeatures"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "buildfeatures", entry["stage"])
}

func TestLogErrorNilLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		LogError(nil, "ignored", errors.New("boom"))
	})
}

func TestLogStage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogStage(logger, "cleandata", "meteo_daily.parquet", 365, 250*time.Millisecond)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage_step", entry["msg"])
	assert.Equal(t, "cleandata", entry["stage"])
	assert.Equal(t, "meteo_daily.parquet", entry["output"])
	assert.Equal(t, float64(365), entry["rows"])
}
