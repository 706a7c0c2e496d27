// fitmodels estimates the statistical models on the processed model
// matrices: hourly and daily Poisson/Negative Binomial GLMs with spline
// smoothers, and the difference-in-differences OLS around the event date.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bikeshare.trentomobility.org/internal/app"
	"bikeshare.trentomobility.org/internal/features"
	"bikeshare.trentomobility.org/internal/logging"
	"bikeshare.trentomobility.org/internal/pipeline"
	"bikeshare.trentomobility.org/internal/report"
	"bikeshare.trentomobility.org/internal/stats"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "config.yml", "Pipeline configuration file")
	flag.StringVar(&opts.Processed, "processed", "", "Processed data root (default data/processed)")
	flag.StringVar(&opts.Reports, "reports", "", "Reports root (default reports)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Debug logging")
	flag.Parse()

	a, err := app.New(opts)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(a); err != nil {
		a.Logger.Error("fitmodels failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(a *app.Application) error {
	logger := a.Logger
	modelsDir := filepath.Join(a.Paths.Reports, "models")
	if err := pipeline.EnsureDirs(modelsDir, a.Paths.FiguresDir()); err != nil {
		return err
	}
	for _, path := range []string{a.Paths.ModelMatrixHourPath(), a.Paths.ModelMatrixDayPath()} {
		if err := pipeline.RequireFile(path, "buildfeatures"); err != nil {
			return err
		}
	}

	hourRows, err := features.ReadModelMatrixHour(a.Paths.ModelMatrixHourPath())
	if err != nil {
		return err
	}
	dayRows, err := features.ReadModelMatrixDay(a.Paths.ModelMatrixDayPath())
	if err != nil {
		return err
	}

	copts := stats.CountModelOptions{
		HourSplineDF: a.Config.Models.HourSplineDF,
		TmaxSplineDF: a.Config.Models.TmaxSplineDF,
	}
	var summaries []string

	hourModel, err := stats.FitHourModels(hourRows, copts)
	if err != nil {
		return err
	}
	logging.LogOperation(logger, "fitted hourly models",
		slog.Int("observations", hourModel.Poisson.N),
		slog.Int("clusters", hourModel.Poisson.NClusters),
		slog.Float64("negbin_alpha", hourModel.NegBin.Dispersion))
	summaries = append(summaries,
		stats.GLMSummary("hourly trips, Poisson", hourModel.Poisson),
		stats.GLMSummary("hourly trips, Negative Binomial", hourModel.NegBin),
		stats.AICComparison(hourModel.Poisson, hourModel.NegBin))
	if err := writeCoefs(modelsDir, "hour_poisson", hourModel.Poisson); err != nil {
		return err
	}
	if err := writeCoefs(modelsDir, "hour_negbin", hourModel.NegBin); err != nil {
		return err
	}

	hourCurve, err := hourModel.PartialHourCurve(hourModel.Poisson)
	if err != nil {
		return err
	}
	if err := report.PartialEffectFigure(
		filepath.Join(a.Paths.FiguresDir(), "partial_hour.png"),
		"Hourly trip profile (other covariates at median/mode)", "hour of day", hourCurve); err != nil {
		return err
	}
	tmaxCurve, err := hourModel.PartialTmaxCurve(hourModel.Poisson, 50)
	if err != nil {
		return err
	}
	if err := report.PartialEffectFigure(
		filepath.Join(a.Paths.FiguresDir(), "partial_tmax_hourly.png"),
		"Temperature response, hourly model", "max temperature (°C)", tmaxCurve); err != nil {
		return err
	}

	dayModel, err := stats.FitDayModels(dayRows, copts)
	if err != nil {
		return err
	}
	logging.LogOperation(logger, "fitted daily models",
		slog.Int("observations", dayModel.Poisson.N),
		slog.Float64("negbin_alpha", dayModel.NegBin.Dispersion))
	summaries = append(summaries,
		stats.GLMSummary("daily trips, Poisson", dayModel.Poisson),
		stats.GLMSummary("daily trips, Negative Binomial", dayModel.NegBin),
		stats.AICComparison(dayModel.Poisson, dayModel.NegBin))
	if err := writeCoefs(modelsDir, "day_poisson", dayModel.Poisson); err != nil {
		return err
	}
	if err := writeCoefs(modelsDir, "day_negbin", dayModel.NegBin); err != nil {
		return err
	}
	dayTmaxCurve, err := dayModel.PartialTmaxCurve(dayModel.Poisson, 50)
	if err != nil {
		return err
	}
	if err := report.PartialEffectFigure(
		filepath.Join(a.Paths.FiguresDir(), "partial_tmax_daily.png"),
		"Temperature response, daily model", "max temperature (°C)", dayTmaxCurve); err != nil {
		return err
	}

	event, err := a.Config.ParsedEventDate()
	if err != nil {
		return err
	}
	didRes, didData, err := stats.FitDID(dayRows, stats.DIDOptions{
		EventDate:  event,
		WindowDays: a.Config.Models.DIDWindowDays,
	})
	if err != nil {
		return err
	}
	didCoef, err := didRes.Coef("did")
	if err != nil {
		return err
	}
	logger.Info("fitted DID model",
		slog.Float64("did", didCoef),
		slog.Int("treated_stations", didData.NTreated),
		slog.Int("control_stations", didData.NControl))
	summaries = append(summaries, stats.OLSSummary(
		fmt.Sprintf("difference-in-differences, event %s, +-%d days",
			event.Format("2006-01-02"), a.Config.Models.DIDWindowDays), didRes))
	if err := stats.WriteCoefficientsCSV(
		filepath.Join(modelsDir, "coefficients_did.csv"), "did", didRes.Coefficients); err != nil {
		return err
	}

	summaryPath := filepath.Join(modelsDir, "model_summaries.txt")
	if err := os.WriteFile(summaryPath, []byte(strings.Join(summaries, "\n\n")), 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", summaryPath, err)
	}
	logger.Info("wrote model outputs", slog.String("dir", modelsDir))
	return nil
}

func writeCoefs(dir, name string, res *stats.GLMResult) error {
	return stats.WriteCoefficientsCSV(
		filepath.Join(dir, fmt.Sprintf("coefficients_%s.csv", name)), name, res.Coefficients)
}
