// Package app wires the shared dependencies of the pipeline stage binaries.
package app

import (
	"log/slog"
	"os"

	"bikeshare.trentomobility.org/internal/config"
	"bikeshare.trentomobility.org/internal/logging"
	"bikeshare.trentomobility.org/internal/pipeline"
)

// Application holds the dependencies every stage binary needs: the validated
// pipeline configuration, the directory roots and a structured logger.
type Application struct {
	Config config.Config
	Paths  pipeline.Paths
	Logger *slog.Logger
}

// Options are the command-line overrides shared by the stage binaries.
type Options struct {
	ConfigPath string
	Raw        string
	Interim    string
	Processed  string
	Reports    string
	Verbose    bool
}

// New loads the configuration and builds the application for one stage run.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	paths := pipeline.DefaultPaths()
	if opts.Raw != "" {
		paths.Raw = opts.Raw
	}
	if opts.Interim != "" {
		paths.Interim = opts.Interim
	}
	if opts.Processed != "" {
		paths.Processed = opts.Processed
	}
	if opts.Reports != "" {
		paths.Reports = opts.Reports
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	return &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logging.NewStructuredLogger(os.Stdout, level),
	}, nil
}
