// statuspoller polls the bike-share provider's live station status at a
// fixed interval and writes one NDJSON snapshot per successful cycle. It
// runs until interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bikeshare.trentomobility.org/internal/logging"
	"bikeshare.trentomobility.org/internal/poller"
)

func main() {
	logger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)

	cfg, err := poller.LoadConfig()
	if err != nil {
		logger.Error("failed to load poller config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client, err := poller.NewClient(cfg, logger)
	if err != nil {
		logger.Error("failed to build status client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("status poller starting",
		slog.String("city_id", cfg.CityID),
		slog.Duration("interval", cfg.Interval),
		slog.String("output_dir", cfg.OutputDir))
	if err := poller.Run(ctx, client, cfg, logger); err != nil {
		logger.Error("poller exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
