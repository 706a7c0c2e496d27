package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"bikeshare.trentomobility.org/internal/models"
)

// ZoneCoverage summarizes how much of a zone's dock capacity sits within
// reach of public transit. Capacity stands in for resident families, which
// the inventory does not carry.
type ZoneCoverage struct {
	Zone           string
	Stations       int
	Served         int
	Capacity       int
	ServedCapacity int
	Share          float64
}

// BuildCoverage computes per-zone coverage: a station counts as served when
// at least minStops transit stops lie within its 300 m buffer.
func BuildCoverage(stations []models.Station, index []models.AccessibilityRow, minStops int) ([]ZoneCoverage, error) {
	if minStops < 1 {
		return nil, fmt.Errorf("minimum stop count must be at least 1, got %d", minStops)
	}
	stops := make(map[int64]int64, len(index))
	for _, r := range index {
		stops[r.StationID] = r.Stops300m
	}

	byZone := make(map[string]*ZoneCoverage)
	for _, s := range stations {
		zc := byZone[s.Zone]
		if zc == nil {
			zc = &ZoneCoverage{Zone: s.Zone}
			byZone[s.Zone] = zc
		}
		zc.Stations++
		zc.Capacity += s.Capacity
		if stops[int64(s.ID)] >= int64(minStops) {
			zc.Served++
			zc.ServedCapacity += s.Capacity
		}
	}

	out := make([]ZoneCoverage, 0, len(byZone))
	for _, zc := range byZone {
		if zc.Capacity > 0 {
			zc.Share = float64(zc.ServedCapacity) / float64(zc.Capacity)
		}
		out = append(out, *zc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out, nil
}

// WriteCoverageCSV persists the per-zone coverage table.
func WriteCoverageCSV(path string, rows []ZoneCoverage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"zone", "stations", "served", "capacity", "served_capacity", "share"}); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Zone,
			strconv.Itoa(r.Stations),
			strconv.Itoa(r.Served),
			strconv.Itoa(r.Capacity),
			strconv.Itoa(r.ServedCapacity),
			strconv.FormatFloat(r.Share, 'f', 4, 64),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("error writing coverage row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing %s: %w", path, err)
	}
	return nil
}

// CoverageSummary renders the coverage table as plain text.
func CoverageSummary(rows []ZoneCoverage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "population coverage by zone (capacity-weighted, 300 m)\n")
	fmt.Fprintf(&b, "%-20s %9s %7s %9s %7s\n", "zone", "stations", "served", "capacity", "share")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-20s %9d %7d %9d %6.1f%%\n", r.Zone, r.Stations, r.Served, r.Capacity, 100*r.Share)
	}
	return b.String()
}
