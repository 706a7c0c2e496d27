package logging

import (
	"io"
	"log/slog"
	"time"
)

// NewStructuredLogger creates a new structured logger with JSON output
func NewStructuredLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}

// LogError logs an error with structured context
func LogError(logger *slog.Logger, message string, err error, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("error", err.Error()))

	for _, attr := range attrs {
		args = append(args, attr)
	}

	logger.Error(message, args...)
}

// LogOperation logs an operation with structured context
func LogOperation(logger *slog.Logger, operation string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		// Skip zero-value durations
		if attr.Key == "duration" && attr.Value.Duration() == 0 {
			continue
		}
		args = append(args, attr)
	}

	logger.Info(operation, args...)
}

// LogStage logs the completion of a pipeline stage step with its output and timing
func LogStage(logger *slog.Logger, stage, output string, rows int, elapsed time.Duration, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	args := make([]any, 0, len(attrs)+4)
	args = append(args,
		slog.String("stage", stage),
		slog.String("output", output),
		slog.Int("rows", rows),
		slog.Float64("elapsed_ms", float64(elapsed.Milliseconds())),
	)

	for _, attr := range attrs {
		args = append(args, attr)
	}

	logger.Info("stage_step", args...)
}
