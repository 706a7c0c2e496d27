package clean

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/pipeline"
)

// LoadSnapshots reads every status_*.ndjson snapshot under dir, in file-name
// order. Lines that fail to parse are an error: the poller only writes
// complete snapshots, so a broken line means a corrupted file.
func LoadSnapshots(dir string) ([]models.StatusSnapshot, error) {
	files, err := filepath.Glob(filepath.Join(dir, "status_*.ndjson"))
	if err != nil {
		return nil, fmt.Errorf("error listing snapshots in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, &pipeline.EmptyResultError{
			Source: dir,
			Hint:   "no status_*.ndjson files found; run the status poller first",
		}
	}
	sort.Strings(files)

	var snapshots []models.StatusSnapshot
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error opening snapshot %s: %w", path, err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var snap models.StatusSnapshot
			if err := json.Unmarshal(line, &snap); err != nil {
				f.Close() // nolint:errcheck
				return nil, fmt.Errorf("error parsing snapshot line in %s: %w", path, err)
			}
			snapshots = append(snapshots, snap)
		}
		if err := scanner.Err(); err != nil {
			f.Close() // nolint:errcheck
			return nil, fmt.Errorf("error reading snapshot %s: %w", path, err)
		}
		f.Close() // nolint:errcheck
	}
	return snapshots, nil
}

// InferTrips derives hourly and daily pickup counts from bike-count deltas
// between consecutive snapshots of each station. An absolute delta above
// rebalanceThreshold is attributed to a rebalancing van and zeroed; pickups
// are the negative part of what remains.
func InferTrips(snapshots []models.StatusSnapshot, rebalanceThreshold int, loc *time.Location) ([]models.TripHourRow, []models.TripDayRow, error) {
	type obs struct {
		ts    time.Time
		bikes int
	}
	byStation := make(map[string][]obs)
	for _, s := range snapshots {
		ts, err := time.ParseInLocation(models.SnapshotTimestampLayout, s.Timestamp, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("bad snapshot timestamp %q: %w", s.Timestamp, err)
		}
		byStation[s.StationID] = append(byStation[s.StationID], obs{ts: ts, bikes: s.Bikes})
	}

	type hourKey struct {
		station string
		date    string
		hour    int
	}
	hourly := make(map[hourKey]int64)
	for station, seq := range byStation {
		sort.Slice(seq, func(i, j int) bool { return seq[i].ts.Before(seq[j].ts) })
		for i := 1; i < len(seq); i++ {
			delta := seq[i].bikes - seq[i-1].bikes
			if delta > rebalanceThreshold || -delta > rebalanceThreshold {
				delta = 0
			}
			pickup := -delta
			if pickup < 0 {
				pickup = 0
			}
			key := hourKey{
				station: station,
				date:    seq[i].ts.Format(models.DateLayout),
				hour:    seq[i].ts.Hour(),
			}
			hourly[key] += int64(pickup)
		}
	}

	hourRows := make([]models.TripHourRow, 0, len(hourly))
	for key, trips := range hourly {
		hourRows = append(hourRows, models.TripHourRow{
			StationID: key.station,
			Date:      key.date,
			Hour:      int32(key.hour),
			Trips:     trips,
		})
	}
	sort.Slice(hourRows, func(i, j int) bool {
		a, b := hourRows[i], hourRows[j]
		if a.StationID != b.StationID {
			return a.StationID < b.StationID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Hour < b.Hour
	})

	type dayKey struct {
		station string
		date    string
	}
	daily := make(map[dayKey]int64)
	for _, r := range hourRows {
		daily[dayKey{station: r.StationID, date: r.Date}] += r.Trips
	}
	dayRows := make([]models.TripDayRow, 0, len(daily))
	for key, trips := range daily {
		dayRows = append(dayRows, models.TripDayRow{StationID: key.station, Date: key.date, Trips: trips})
	}
	sort.Slice(dayRows, func(i, j int) bool {
		a, b := dayRows[i], dayRows[j]
		if a.StationID != b.StationID {
			return a.StationID < b.StationID
		}
		return a.Date < b.Date
	})

	return hourRows, dayRows, nil
}

// WriteTripTables persists the inferred hourly and daily trip outcomes.
func WriteTripTables(hourPath, dayPath string, hourRows []models.TripHourRow, dayRows []models.TripDayRow) error {
	if err := parquet.WriteFile(hourPath, hourRows); err != nil {
		return fmt.Errorf("error writing hourly trips %s: %w", hourPath, err)
	}
	if err := parquet.WriteFile(dayPath, dayRows); err != nil {
		return fmt.Errorf("error writing daily trips %s: %w", dayPath, err)
	}
	return nil
}

// ReadTripHourTable loads the hourly trip outcomes.
func ReadTripHourTable(path string) ([]models.TripHourRow, error) {
	rows, err := parquet.ReadFile[models.TripHourRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading hourly trips %s: %w", path, err)
	}
	return rows, nil
}

// ReadTripDayTable loads the daily trip outcomes.
func ReadTripDayTable(path string) ([]models.TripDayRow, error) {
	rows, err := parquet.ReadFile[models.TripDayRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading daily trips %s: %w", path, err)
	}
	return rows, nil
}
