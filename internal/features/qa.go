package features

import (
	"fmt"
	"sort"

	"bikeshare.trentomobility.org/internal/models"
)

// QAReport summarizes the key-integrity checks run after a feature build.
type QAReport struct {
	Stations      int
	HourRows      int
	FirstDate     string
	LastDate      string
	OnlyInIndex   []int64
	OnlyInFeature []int64
}

// CheckProcessed validates the invariants every feature table must hold:
// unique station ids in the index, unique (station, date, hour) keys in the
// hourly table, and reports the date coverage plus any station-set mismatch
// between index and features. Duplicate keys are a join bug and an error.
func CheckProcessed(index []models.AccessibilityRow, hours []models.StationHourRow) (QAReport, error) {
	report := QAReport{Stations: len(index), HourRows: len(hours)}

	indexIDs := make(map[int64]bool, len(index))
	for _, row := range index {
		if indexIDs[row.StationID] {
			return report, fmt.Errorf("duplicate station id %d in accessibility index", row.StationID)
		}
		indexIDs[row.StationID] = true
	}

	type hourKey struct {
		station int64
		date    string
		hour    int32
	}
	seen := make(map[hourKey]bool, len(hours))
	featureIDs := make(map[int64]bool)
	for _, row := range hours {
		k := hourKey{station: row.StationID, date: row.Date, hour: row.Hour}
		if seen[k] {
			return report, fmt.Errorf("duplicate key (station=%d, date=%s, hour=%d) in hourly features",
				row.StationID, row.Date, row.Hour)
		}
		seen[k] = true
		featureIDs[row.StationID] = true

		if report.FirstDate == "" || row.Date < report.FirstDate {
			report.FirstDate = row.Date
		}
		if row.Date > report.LastDate {
			report.LastDate = row.Date
		}
	}

	for id := range indexIDs {
		if !featureIDs[id] {
			report.OnlyInIndex = append(report.OnlyInIndex, id)
		}
	}
	for id := range featureIDs {
		if !indexIDs[id] {
			report.OnlyInFeature = append(report.OnlyInFeature, id)
		}
	}
	sort.Slice(report.OnlyInIndex, func(i, j int) bool { return report.OnlyInIndex[i] < report.OnlyInIndex[j] })
	sort.Slice(report.OnlyInFeature, func(i, j int) bool { return report.OnlyInFeature[i] < report.OnlyInFeature[j] })

	if len(report.OnlyInFeature) > 0 {
		return report, fmt.Errorf("hourly features reference %d station ids absent from the index: %v",
			len(report.OnlyInFeature), report.OnlyInFeature)
	}
	return report, nil
}
