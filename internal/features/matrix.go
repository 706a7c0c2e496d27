package features

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"bikeshare.trentomobility.org/internal/models"
)

type stationDate struct {
	station int64
	date    string
}

type dailyDeps struct {
	urb int64
	ext int64
	tot int64
}

// DailyDepartureSums collapses hourly GTFS departures to station-day totals.
func DailyDepartureSums(hours []models.StationHourRow) map[stationDate]dailyDeps {
	sums := make(map[stationDate]dailyDeps)
	for _, h := range hours {
		k := stationDate{station: h.StationID, date: h.Date}
		s := sums[k]
		s.urb += h.DepUrb
		s.ext += h.DepExt
		s.tot += h.DepTotal
		sums[k] = s
	}
	return sums
}

// BuildStationDayRows builds the full station x date daily grid: every
// station appears on every date the GTFS window covers, left-joined with the
// daily departure sums and the per-date covariates. Missing GTFS counts
// become zero; missing covariates stay NaN.
func BuildStationDayRows(stations []models.Station, hours []models.StationHourRow, temporal []models.TemporalDay) []models.StationDayRow {
	sums := DailyDepartureSums(hours)

	dateSet := make(map[string]bool)
	for _, h := range hours {
		dateSet[h.Date] = true
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	covByDate := make(map[string]models.TemporalDay, len(temporal))
	for _, t := range temporal {
		covByDate[t.Date.Format(models.DateLayout)] = t
	}

	rows := make([]models.StationDayRow, 0, len(stations)*len(dates))
	for _, date := range dates {
		for _, st := range stations {
			row := models.StationDayRow{
				StationID:  int64(st.ID),
				Date:       date,
				Capacity:   int64(st.Capacity),
				Zone:       st.Zone,
				MobTransit: math.NaN(),
				MobWork:    math.NaN(),
				MobRetail:  math.NaN(),
				MobParks:   math.NaN(),
				TempMax:    math.NaN(),
				TempMin:    math.NaN(),
				PrecipMM:   math.NaN(),
			}
			if s, ok := sums[stationDate{station: int64(st.ID), date: date}]; ok {
				row.DepUrbDay = s.urb
				row.DepExtDay = s.ext
				row.DepTotDay = s.tot
			}
			if cov, ok := covByDate[date]; ok {
				row.MobTransit = cov.MobTransit
				row.MobWork = cov.MobWork
				row.MobRetail = cov.MobRetail
				row.MobParks = cov.MobParks
				row.TempMax = cov.TempMax
				row.TempMin = cov.TempMin
				row.PrecipMM = cov.PrecipMM
				row.Dow = int32(cov.Dow)
				row.IsWeekend = boolFlag(cov.IsWeekend)
				row.IsHoliday = boolFlag(cov.IsHoliday)
			} else if d, err := time.Parse(models.DateLayout, date); err == nil {
				row.Dow = int32(models.Dow(d))
				row.IsWeekend = boolFlag(models.Dow(d) >= 5)
				row.IsHoliday = boolFlag(IsItalianHoliday(d))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// BuildModelMatrixHour joins hourly trip outcomes with station attributes,
// per-date covariates and the GTFS supply column. Left join on the outcome
// rows: the result has exactly one row per input trip row.
func BuildModelMatrixHour(trips []models.TripHourRow, stations []models.Station, temporal []models.TemporalDay, gtfsHours []models.StationHourRow) ([]models.ModelMatrixHourRow, error) {
	stationByID := make(map[int64]models.Station, len(stations))
	for _, st := range stations {
		stationByID[int64(st.ID)] = st
	}
	covByDate := make(map[string]models.TemporalDay, len(temporal))
	for _, t := range temporal {
		covByDate[t.Date.Format(models.DateLayout)] = t
	}
	type hourKey struct {
		station int64
		date    string
		hour    int32
	}
	gtfsByKey := make(map[hourKey]int64, len(gtfsHours))
	for _, h := range gtfsHours {
		gtfsByKey[hourKey{station: h.StationID, date: h.Date, hour: h.Hour}] = h.DepTotal
	}

	rows := make([]models.ModelMatrixHourRow, 0, len(trips))
	for _, tr := range trips {
		stationID, err := strconv.ParseInt(tr.StationID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trip outcome has non-numeric station id %q", tr.StationID)
		}
		row := models.ModelMatrixHourRow{
			StationID: stationID,
			Date:      tr.Date,
			Hour:      tr.Hour,
			Trips:     tr.Trips,
			Zone:      "unknown",
			TempMax:   math.NaN(),
			PrecipMM:  math.NaN(),
			MobWork:   math.NaN(),
			MobTran:   math.NaN(),
		}
		if st, ok := stationByID[stationID]; ok {
			row.Zone = st.Zone
		}
		if cov, ok := covByDate[tr.Date]; ok {
			row.TempMax = cov.TempMax
			row.PrecipMM = cov.PrecipMM
			row.MobWork = cov.MobWork
			row.MobTran = cov.MobTransit
			row.Dow = int32(cov.Dow)
			row.IsWeekend = boolFlag(cov.IsWeekend)
		} else if d, err := time.Parse(models.DateLayout, tr.Date); err == nil {
			row.Dow = int32(models.Dow(d))
			row.IsWeekend = boolFlag(models.Dow(d) >= 5)
		}
		if d, err := time.Parse(models.DateLayout, tr.Date); err == nil {
			row.Month = int32(d.Month())
		}
		// GTFS supply left join, NA -> 0
		row.GtfsDep = gtfsByKey[hourKey{station: stationID, date: tr.Date, hour: tr.Hour}]
		rows = append(rows, row)
	}
	return rows, nil
}

// BuildModelMatrixDay joins daily trip outcomes with station attributes,
// per-date covariates and the daily GTFS supply sum.
func BuildModelMatrixDay(trips []models.TripDayRow, stations []models.Station, temporal []models.TemporalDay, gtfsHours []models.StationHourRow) ([]models.ModelMatrixDayRow, error) {
	stationByID := make(map[int64]models.Station, len(stations))
	for _, st := range stations {
		stationByID[int64(st.ID)] = st
	}
	covByDate := make(map[string]models.TemporalDay, len(temporal))
	for _, t := range temporal {
		covByDate[t.Date.Format(models.DateLayout)] = t
	}
	sums := DailyDepartureSums(gtfsHours)

	rows := make([]models.ModelMatrixDayRow, 0, len(trips))
	for _, tr := range trips {
		stationID, err := strconv.ParseInt(tr.StationID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trip outcome has non-numeric station id %q", tr.StationID)
		}
		row := models.ModelMatrixDayRow{
			StationID: stationID,
			Date:      tr.Date,
			Trips:     tr.Trips,
			Zone:      "unknown",
			TempMax:   math.NaN(),
			PrecipMM:  math.NaN(),
			MobWork:   math.NaN(),
			MobTran:   math.NaN(),
		}
		if st, ok := stationByID[stationID]; ok {
			row.Zone = st.Zone
		}
		if cov, ok := covByDate[tr.Date]; ok {
			row.TempMax = cov.TempMax
			row.PrecipMM = cov.PrecipMM
			row.MobWork = cov.MobWork
			row.MobTran = cov.MobTransit
			row.Dow = int32(cov.Dow)
			row.IsWeekend = boolFlag(cov.IsWeekend)
		}
		if d, err := time.Parse(models.DateLayout, tr.Date); err == nil {
			if _, ok := covByDate[tr.Date]; !ok {
				row.Dow = int32(models.Dow(d))
				row.IsWeekend = boolFlag(models.Dow(d) >= 5)
			}
			_, week := d.ISOWeek()
			row.Week = int32(week)
			row.Month = int32(d.Month())
		}
		row.GtfsDep = sums[stationDate{station: stationID, date: tr.Date}].tot
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteStationHourTable persists the hourly GTFS supply table.
func WriteStationHourTable(path string, rows []models.StationHourRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing station-hour table %s: %w", path, err)
	}
	return nil
}

// ReadStationHourTable loads the hourly GTFS supply table.
func ReadStationHourTable(path string) ([]models.StationHourRow, error) {
	rows, err := parquet.ReadFile[models.StationHourRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading station-hour table %s: %w", path, err)
	}
	return rows, nil
}

// WriteStationDayTable persists the daily covariate grid.
func WriteStationDayTable(path string, rows []models.StationDayRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing station-day table %s: %w", path, err)
	}
	return nil
}

// WriteAccessibilityTable persists the accessibility index.
func WriteAccessibilityTable(path string, rows []models.AccessibilityRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing accessibility table %s: %w", path, err)
	}
	return nil
}

// ReadAccessibilityTable loads the accessibility index.
func ReadAccessibilityTable(path string) ([]models.AccessibilityRow, error) {
	rows, err := parquet.ReadFile[models.AccessibilityRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading accessibility table %s: %w", path, err)
	}
	return rows, nil
}

// WriteModelMatrixHour persists the hourly model matrix.
func WriteModelMatrixHour(path string, rows []models.ModelMatrixHourRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing hourly model matrix %s: %w", path, err)
	}
	return nil
}

// ReadModelMatrixHour loads the hourly model matrix.
func ReadModelMatrixHour(path string) ([]models.ModelMatrixHourRow, error) {
	rows, err := parquet.ReadFile[models.ModelMatrixHourRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading hourly model matrix %s: %w", path, err)
	}
	return rows, nil
}

// WriteModelMatrixDay persists the daily model matrix.
func WriteModelMatrixDay(path string, rows []models.ModelMatrixDayRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing daily model matrix %s: %w", path, err)
	}
	return nil
}

// ReadModelMatrixDay loads the daily model matrix.
func ReadModelMatrixDay(path string) ([]models.ModelMatrixDayRow, error) {
	rows, err := parquet.ReadFile[models.ModelMatrixDayRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading daily model matrix %s: %w", path, err)
	}
	return rows, nil
}
