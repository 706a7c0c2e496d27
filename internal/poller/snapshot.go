package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bikeshare.trentomobility.org/internal/models"
)

// WriteSnapshot persists one poll cycle as status_<ts>.ndjson in dir. The
// file appears atomically via a rename, so readers never see a half-written
// snapshot.
func WriteSnapshot(dir string, now time.Time, rows []models.StatusSnapshot) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("refusing to write an empty snapshot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating snapshot dir %s: %w", dir, err)
	}

	ts := now.Format(models.SnapshotTimestampLayout)
	path := filepath.Join(dir, fmt.Sprintf("status_%s.ndjson", ts))
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", tmp, err)
	}
	enc := json.NewEncoder(f)
	for _, r := range rows {
		r.Timestamp = ts
		if err := enc.Encode(r); err != nil {
			f.Close()           // nolint:errcheck
			os.Remove(tmp)      // nolint:errcheck
			return "", fmt.Errorf("error writing snapshot row: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) // nolint:errcheck
		return "", fmt.Errorf("error closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // nolint:errcheck
		return "", fmt.Errorf("error renaming snapshot: %w", err)
	}
	return path, nil
}

// Run polls at the configured interval until the context is cancelled. The
// first cycle runs immediately; a failed cycle is logged and skipped, never
// retried early.
func Run(ctx context.Context, client *Client, cfg Config, logger *slog.Logger) error {
	cycle := func() {
		rows, err := client.FetchOnce(ctx)
		if err != nil {
			logger.Error("poll cycle failed", slog.String("error", err.Error()))
			return
		}
		path, err := WriteSnapshot(cfg.OutputDir, time.Now(), rows)
		if err != nil {
			logger.Error("snapshot write failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("snapshot written",
			slog.String("path", path),
			slog.Int("stations", len(rows)))
	}

	cycle()
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("poller stopping", slog.String("reason", ctx.Err().Error()))
			return nil
		case <-ticker.C:
			cycle()
		}
	}
}
