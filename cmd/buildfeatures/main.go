// buildfeatures derives the processed feature tables from the interim data:
// the station accessibility index, the expanded GTFS departure counts, the
// daily covariate table and the hourly/daily model matrices, finishing with
// consistency checks over the outputs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/paulmach/orb"

	"bikeshare.trentomobility.org/gtfsdb"
	"bikeshare.trentomobility.org/internal/app"
	"bikeshare.trentomobility.org/internal/clean"
	"bikeshare.trentomobility.org/internal/features"
	"bikeshare.trentomobility.org/internal/logging"
	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/pipeline"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "config.yml", "Pipeline configuration file")
	flag.StringVar(&opts.Interim, "interim", "", "Interim data root (default data/interim)")
	flag.StringVar(&opts.Processed, "processed", "", "Processed data root (default data/processed)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Debug logging")
	flag.Parse()

	a, err := app.New(opts)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(a); err != nil {
		a.Logger.Error("buildfeatures failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(a *app.Application) error {
	logger := a.Logger
	if err := pipeline.EnsureDirs(a.Paths.Processed); err != nil {
		return err
	}
	for _, input := range []struct{ path, producedBy string }{
		{a.Paths.StationsPath(), "cleandata"},
		{a.Paths.GTFSDBPath(), "cleandata"},
		{a.Paths.WeatherPath(), "cleandata"},
		{a.Paths.MobilityPath(), "cleandata"},
	} {
		if err := pipeline.RequireFile(input.path, input.producedBy); err != nil {
			return err
		}
	}

	stations, err := clean.ReadStationsGeoJSON(a.Paths.StationsPath())
	if err != nil {
		return err
	}

	client, err := gtfsdb.NewClient(gtfsdb.NewConfig(a.Paths.GTFSDBPath(), false))
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(client, logger, "gtfs database")
	ctx := context.Background()

	// accessibility index over all partitions' stops
	stopRows, err := client.StopsWithRouteCounts(ctx)
	if err != nil {
		return err
	}
	stops := make([]features.StopPoint, len(stopRows))
	for i, s := range stopRows {
		stops[i] = features.StopPoint{
			FeedID: s.FeedID,
			ID:     s.ID,
			Name:   s.Name,
			Point:  orb.Point{s.Lon, s.Lat},
			Routes: s.RouteCount,
		}
	}
	matcher, err := features.NewMatcher(stops, a.Config.Features.BufferRadiiM, a.Config.Features.RouteWeight)
	if err != nil {
		return err
	}
	start := time.Now()
	index := features.AccessibilityRows(matcher.Match(stations))
	if err := features.WriteAccessibilityTable(a.Paths.AccessibilityPath(), index); err != nil {
		return err
	}
	if err := features.WriteAccessibilityGeoJSON(a.Paths.AccessibilityGeoPath(), index); err != nil {
		return err
	}
	logging.LogStage(logger, "accessibility", a.Paths.AccessibilityPath(), len(index), time.Since(start),
		slog.Int("stops", len(stops)))

	// per-partition departure counts over the global service window
	partitions := make([]features.Partition, 0, len(a.Config.Feeds))
	for _, feed := range a.Config.Feeds {
		p, err := loadPartition(ctx, client, matcher, stations, feed.Name, a.Config.Features.AttributionRadiusM)
		if err != nil {
			return err
		}
		partitions = append(partitions, p)
	}
	start = time.Now()
	gtfsHours, err := features.BuildStationHours(partitions)
	if err != nil {
		return err
	}
	if err := features.WriteStationHourTable(a.Paths.GTFSStationHourPath(), gtfsHours); err != nil {
		return err
	}
	logging.LogStage(logger, "gtfs departures", a.Paths.GTFSStationHourPath(), len(gtfsHours), time.Since(start))

	// daily covariates
	weather, err := clean.ReadWeatherTable(a.Paths.WeatherPath())
	if err != nil {
		return err
	}
	mobility, err := clean.ReadMobilityTable(a.Paths.MobilityPath())
	if err != nil {
		return err
	}
	temporal := features.BuildTemporal(mobility, weather)
	if err := features.WriteTemporalTable(a.Paths.TemporalPath(), temporal); err != nil {
		return err
	}
	dayRows := features.BuildStationDayRows(stations, gtfsHours, temporal)
	if err := features.WriteStationDayTable(a.Paths.StationDayCovarsPath(), dayRows); err != nil {
		return err
	}
	logger.Info("built covariates",
		slog.Int("dates", len(temporal)),
		slog.Int("station_days", len(dayRows)))

	// model matrices joining the trip outcomes
	tripHours, err := clean.ReadTripHourTable(a.Paths.TripHourPath())
	if err != nil {
		return err
	}
	tripDays, err := clean.ReadTripDayTable(a.Paths.TripDayPath())
	if err != nil {
		return err
	}
	matrixHour, err := features.BuildModelMatrixHour(tripHours, stations, temporal, gtfsHours)
	if err != nil {
		return err
	}
	if err := features.WriteModelMatrixHour(a.Paths.ModelMatrixHourPath(), matrixHour); err != nil {
		return err
	}
	matrixDay, err := features.BuildModelMatrixDay(tripDays, stations, temporal, gtfsHours)
	if err != nil {
		return err
	}
	if err := features.WriteModelMatrixDay(a.Paths.ModelMatrixDayPath(), matrixDay); err != nil {
		return err
	}
	logger.Info("built model matrices",
		slog.Int("hourly_rows", len(matrixHour)),
		slog.Int("daily_rows", len(matrixDay)))

	report, err := features.CheckProcessed(index, gtfsHours)
	if err != nil {
		return err
	}
	logger.Info("processed outputs check",
		slog.Int("stations", report.Stations),
		slog.Int("hour_rows", report.HourRows),
		slog.String("first_date", report.FirstDate),
		slog.String("last_date", report.LastDate),
		slog.Int("only_in_index", len(report.OnlyInIndex)))
	return nil
}

func loadPartition(ctx context.Context, client *gtfsdb.Client, matcher *features.Matcher, stations []models.Station, feedID string, radiusM int) (features.Partition, error) {
	calRows, err := client.CalendarsForFeed(ctx, feedID)
	if err != nil {
		return features.Partition{}, err
	}
	calendars := make([]features.ServiceCalendar, len(calRows))
	for i, row := range calRows {
		if calendars[i], err = features.CalendarFromRow(row); err != nil {
			return features.Partition{}, err
		}
	}

	excRows, err := client.CalendarDatesForFeed(ctx, feedID)
	if err != nil {
		return features.Partition{}, err
	}
	exceptions := make([]features.ServiceException, len(excRows))
	for i, row := range excRows {
		if exceptions[i], err = features.ExceptionFromRow(row); err != nil {
			return features.Partition{}, err
		}
	}

	departures, err := client.DeparturesForFeed(ctx, feedID)
	if err != nil {
		return features.Partition{}, err
	}

	return features.Partition{
		Name:         feedID,
		Calendars:    calendars,
		Exceptions:   exceptions,
		Departures:   departures,
		StopStations: features.StopStationMap(matcher, stations, feedID, radiusM),
	}, nil
}
