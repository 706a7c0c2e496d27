// report renders the study's figures and ranking tables from the processed
// tables: mobility series, weather relationships, transit supply profiles,
// the station accessibility map, intermodality rankings and the population
// coverage summary.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bikeshare.trentomobility.org/internal/app"
	"bikeshare.trentomobility.org/internal/clean"
	"bikeshare.trentomobility.org/internal/features"
	"bikeshare.trentomobility.org/internal/pipeline"
	"bikeshare.trentomobility.org/internal/report"
)

func main() {
	var opts app.Options
	var rankingN, coverageMinStops int

	flag.StringVar(&opts.ConfigPath, "config", "config.yml", "Pipeline configuration file")
	flag.StringVar(&opts.Interim, "interim", "", "Interim data root (default data/interim)")
	flag.StringVar(&opts.Processed, "processed", "", "Processed data root (default data/processed)")
	flag.StringVar(&opts.Reports, "reports", "", "Reports root (default reports)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Debug logging")
	flag.IntVar(&rankingN, "ranking-n", 10, "Stations per ranking group")
	flag.IntVar(&coverageMinStops, "coverage-min-stops", 1, "Stops within 300 m for a station to count as served")
	flag.Parse()

	a, err := app.New(opts)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(a, rankingN, coverageMinStops); err != nil {
		a.Logger.Error("report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(a *app.Application, rankingN, coverageMinStops int) error {
	logger := a.Logger
	if err := pipeline.EnsureDirs(a.Paths.FiguresDir(), a.Paths.TablesDir()); err != nil {
		return err
	}
	for _, input := range []struct{ path, producedBy string }{
		{a.Paths.TemporalPath(), "buildfeatures"},
		{a.Paths.AccessibilityPath(), "buildfeatures"},
		{a.Paths.GTFSStationHourPath(), "buildfeatures"},
		{a.Paths.ModelMatrixDayPath(), "buildfeatures"},
		{a.Paths.StationsPath(), "cleandata"},
	} {
		if err := pipeline.RequireFile(input.path, input.producedBy); err != nil {
			return err
		}
	}

	temporal, err := features.ReadTemporalTable(a.Paths.TemporalPath())
	if err != nil {
		return err
	}
	index, err := features.ReadAccessibilityTable(a.Paths.AccessibilityPath())
	if err != nil {
		return err
	}
	gtfsHours, err := features.ReadStationHourTable(a.Paths.GTFSStationHourPath())
	if err != nil {
		return err
	}
	dayRows, err := features.ReadModelMatrixDay(a.Paths.ModelMatrixDayPath())
	if err != nil {
		return err
	}
	stations, err := clean.ReadStationsGeoJSON(a.Paths.StationsPath())
	if err != nil {
		return err
	}
	event, err := a.Config.ParsedEventDate()
	if err != nil {
		return err
	}

	figures := a.Paths.FiguresDir()
	steps := []struct {
		name string
		run  func() error
	}{
		{"mobility_timeseries.png", func() error {
			return report.MobilityTimeSeries(filepath.Join(figures, "mobility_timeseries.png"), temporal)
		}},
		{"temp_mobility_scatter.png", func() error {
			return report.TempMobilityScatter(filepath.Join(figures, "temp_mobility_scatter.png"), temporal)
		}},
		{"rain_boxplots.png", func() error {
			return report.RainBoxPlots(filepath.Join(figures, "rain_boxplots.png"), temporal)
		}},
		{"supply_profiles.png", func() error {
			return report.SupplyProfiles(filepath.Join(figures, "supply_profiles.png"), gtfsHours)
		}},
		{"station_map.png", func() error {
			return report.StationMap(filepath.Join(figures, "station_map.png"), index)
		}},
		{"did_group_means.png", func() error {
			return report.DIDGroupMeans(filepath.Join(figures, "did_group_means.png"), dayRows, event, "")
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return err
		}
		logger.Info("wrote figure", slog.String("file", step.name))
	}

	rankingPath := filepath.Join(a.Paths.TablesDir(), "intermodality_ranking.csv")
	if err := report.IntermodalityRanking(rankingPath, index, rankingN); err != nil {
		return err
	}
	logger.Info("wrote ranking table", slog.String("file", rankingPath))

	coverage, err := report.BuildCoverage(stations, index, coverageMinStops)
	if err != nil {
		return err
	}
	coveragePath := filepath.Join(a.Paths.TablesDir(), "zone_coverage.csv")
	if err := report.WriteCoverageCSV(coveragePath, coverage); err != nil {
		return err
	}
	summaryPath := filepath.Join(a.Paths.Reports, "coverage_summary.txt")
	if err := os.WriteFile(summaryPath, []byte(report.CoverageSummary(coverage)), 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", summaryPath, err)
	}
	logger.Info("wrote coverage outputs",
		slog.String("table", coveragePath),
		slog.Int("zones", len(coverage)))
	return nil
}
