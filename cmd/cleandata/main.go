// cleandata turns the raw inputs into the interim tables: cleaned weather,
// mobility, station inventory and municipal boundaries, the partitioned GTFS
// database, and the trip outcomes inferred from status snapshots.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"bikeshare.trentomobility.org/gtfsdb"
	"bikeshare.trentomobility.org/internal/app"
	"bikeshare.trentomobility.org/internal/clean"
	"bikeshare.trentomobility.org/internal/gtfs"
	"bikeshare.trentomobility.org/internal/logging"
	"bikeshare.trentomobility.org/internal/pipeline"
)

func main() {
	var opts app.Options
	var weatherSrc, mobilitySrc, stationsSrc, boundariesSrc, snapshotsDir string

	flag.StringVar(&opts.ConfigPath, "config", "config.yml", "Pipeline configuration file")
	flag.StringVar(&opts.Raw, "raw", "", "Raw data root (default data/raw)")
	flag.StringVar(&opts.Interim, "interim", "", "Interim data root (default data/interim)")
	flag.StringVar(&opts.Processed, "processed", "", "Processed data root (default data/processed)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Debug logging")
	flag.StringVar(&weatherSrc, "weather", "data/raw/meteo/era5_daily.json", "ERA5 daily weather JSON")
	flag.StringVar(&mobilitySrc, "mobility", "data/external/google_mobility/2022_IT_Region_Mobility_Report.csv", "Google Mobility region CSV")
	flag.StringVar(&stationsSrc, "stations", "data/raw/bikesharing_trento/stazioni_trento.csv", "Station inventory CSV")
	flag.StringVar(&boundariesSrc, "boundaries", "data/external/confini/confini_trento.csv", "Municipal boundaries CSV")
	flag.StringVar(&snapshotsDir, "snapshots", "data/raw/bikesharing_trento/status", "Status snapshot directory")
	flag.Parse()

	a, err := app.New(opts)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := a.Logger

	if err := pipeline.EnsureDirs(a.Paths.Interim, a.Paths.Processed); err != nil {
		logger.Error("failed to create output directories", "error", err)
		os.Exit(1)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"weather", func() error {
			days, err := clean.CleanWeather(weatherSrc)
			if err != nil {
				return err
			}
			logger.Info("cleaned weather", slog.Int("days", len(days)))
			return clean.WriteWeatherTable(a.Paths.WeatherPath(), days)
		}},
		{"mobility", func() error {
			days, err := clean.CleanMobility(mobilitySrc, a.Config.Region)
			if err != nil {
				return err
			}
			logger.Info("cleaned mobility", slog.Int("days", len(days)))
			return clean.WriteMobilityTable(a.Paths.MobilityPath(), days)
		}},
		{"stations", func() error {
			stations, err := clean.CleanStations(stationsSrc)
			if err != nil {
				return err
			}
			logger.Info("cleaned stations", slog.Int("stations", len(stations)))
			return clean.WriteStationsGeoJSON(a.Paths.StationsPath(), stations)
		}},
		{"boundaries", func() error {
			boundaries, err := clean.CleanBoundaries(boundariesSrc)
			if err != nil {
				return err
			}
			logger.Info("cleaned boundaries", slog.Int("rows", len(boundaries)))
			return clean.WriteBoundariesTable(a.Paths.BoundariesPath(), boundaries)
		}},
		{"gtfs", func() error { return importFeeds(a) }},
		{"trips", func() error { return inferTrips(a, snapshotsDir) }},
	}
	for _, step := range steps {
		start := time.Now()
		if err := step.run(); err != nil {
			logging.LogError(logger, "stage step failed", err, slog.String("step", step.name))
			os.Exit(1)
		}
		logger.Info("step complete", slog.String("step", step.name), slog.Duration("took", time.Since(start)))
	}
}

// importFeeds loads each configured GTFS feed and replaces its partition in
// the interim database.
func importFeeds(a *app.Application) error {
	client, err := gtfsdb.NewClient(gtfsdb.NewConfig(a.Paths.GTFSDBPath(), false))
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(client, a.Logger, "gtfs database")

	ctx := context.Background()
	for _, feed := range a.Config.Feeds {
		static, err := gtfs.LoadStatic(feed.Source)
		if err != nil {
			return err
		}
		if err := client.ImportStatic(ctx, feed.Name, feed.Source, static); err != nil {
			return err
		}
		a.Logger.Info("imported GTFS partition",
			slog.String("feed", feed.Name),
			slog.Int("stops", len(static.Stops)),
			slog.Int("trips", len(static.Trips)),
			slog.Duration("took", client.ImportRuntime()))
	}
	return nil
}

// inferTrips derives the hourly and daily trip outcome tables from the
// poller's snapshots.
func inferTrips(a *app.Application, snapshotsDir string) error {
	if err := pipeline.RequireDir(snapshotsDir, "statuspoller"); err != nil {
		return err
	}
	snapshots, err := clean.LoadSnapshots(snapshotsDir)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(a.Config.Trips.Timezone)
	if err != nil {
		return err
	}
	hourRows, dayRows, err := clean.InferTrips(snapshots, a.Config.Trips.RebalanceThreshold, loc)
	if err != nil {
		return err
	}
	a.Logger.Info("inferred trips",
		slog.Int("snapshots", len(snapshots)),
		slog.Int("station_hours", len(hourRows)),
		slog.Int("station_days", len(dayRows)))
	return clean.WriteTripTables(a.Paths.TripHourPath(), a.Paths.TripDayPath(), hourRows, dayRows)
}
