package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/stats"
)

func testTemporal(days int) []models.TemporalDay {
	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.TemporalDay, days)
	for i := range rows {
		rows[i] = models.TemporalDay{
			Date:       start.AddDate(0, 0, i),
			MobTransit: -20 + float64(i%10),
			MobWork:    -25 + float64(i%7),
			TempMax:    18 + float64(i%12),
			PrecipMM:   float64(i % 4),
		}
		if rows[i].PrecipMM > 0 {
			rows[i].RainBinary = 1
		}
	}
	return rows
}

func testIndex() []models.AccessibilityRow {
	return []models.AccessibilityRow{
		{StationID: 1, Name: "Stazione FS", Lat: 46.07, Lon: 11.12, Stops300m: 6, Routes300m: 9, Idx300m: 10.5, DistToStopM: 45},
		{StationID: 2, Name: "Piazza Dante", Lat: 46.07, Lon: 11.12, Stops300m: 4, Routes300m: 5, Idx300m: 6.5, DistToStopM: 80},
		{StationID: 3, Name: "Mesiano", Lat: 46.06, Lon: 11.14, Stops300m: 1, Routes300m: 1, Idx300m: 1.5, DistToStopM: 210},
		{StationID: 4, Name: "Gardolo", Lat: 46.10, Lon: 11.11, Stops300m: 0, Routes300m: 0, Idx300m: 0, DistToStopM: 640},
	}
}

func TestFiguresProducePNGFiles(t *testing.T) {
	dir := t.TempDir()
	temporal := testTemporal(60)

	hours := []models.StationHourRow{}
	for _, id := range []int64{1, 2, 3, 4} {
		for h := int32(6); h < 22; h++ {
			hours = append(hours, models.StationHourRow{
				StationID: id, Date: "2022-06-01", Hour: h, DepTotal: int64(id) * int64(h%5),
			})
		}
	}

	figures := map[string]error{
		"mobility.png": MobilityTimeSeries(filepath.Join(dir, "mobility.png"), temporal),
		"scatter.png":  TempMobilityScatter(filepath.Join(dir, "scatter.png"), temporal),
		"rain.png":     RainBoxPlots(filepath.Join(dir, "rain.png"), temporal),
		"supply.png":   SupplyProfiles(filepath.Join(dir, "supply.png"), hours),
		"map.png":      StationMap(filepath.Join(dir, "map.png"), testIndex()),
	}
	for name, err := range figures {
		require.NoError(t, err, name)
		info, statErr := os.Stat(filepath.Join(dir, name))
		require.NoError(t, statErr, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestPartialEffectFigure(t *testing.T) {
	pts := make([]stats.PartialPoint, 24)
	for h := range pts {
		fit := 1 + float64(h%12)/4
		pts[h] = stats.PartialPoint{X: float64(h), Fit: fit, Lo: fit * 0.8, Hi: fit * 1.25}
	}

	path := filepath.Join(t.TempDir(), "partial_hour.png")
	require.NoError(t, PartialEffectFigure(path, "hourly profile", "hour", pts))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestDIDGroupMeans(t *testing.T) {
	event := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	var rows []models.ModelMatrixDayRow
	for d := 0; d < 30; d++ {
		date := event.AddDate(0, 0, d-15).Format(models.DateLayout)
		rows = append(rows,
			models.ModelMatrixDayRow{StationID: 1, Date: date, Trips: 20, Zone: "centro"},
			models.ModelMatrixDayRow{StationID: 2, Date: date, Trips: 10, Zone: "collina"},
		)
	}

	path := filepath.Join(t.TempDir(), "did.png")
	require.NoError(t, DIDGroupMeans(path, rows, event, ""))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFiguresRejectEmptyInput(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, MobilityTimeSeries(filepath.Join(dir, "a.png"), nil))
	assert.Error(t, TempMobilityScatter(filepath.Join(dir, "b.png"), nil))
	assert.Error(t, SupplyProfiles(filepath.Join(dir, "c.png"), nil))
	assert.Error(t, StationMap(filepath.Join(dir, "d.png"), nil))
	assert.Error(t, PartialEffectFigure(filepath.Join(dir, "e.png"), "t", "x", nil))
}

func TestIntermodalityRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.csv")
	require.NoError(t, IntermodalityRanking(path, testIndex(), 2))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	// header + 2 top + 2 bottom
	require.Len(t, records, 5)
	assert.Equal(t, "rank_group", records[0][len(records[0])-1])
	assert.Equal(t, "1", records[1][0], "highest index first")
	assert.Equal(t, "top", records[1][len(records[1])-1])
	assert.Equal(t, "bottom", records[4][len(records[4])-1])
}

func TestIntermodalityRankingClampsN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.csv")
	require.NoError(t, IntermodalityRanking(path, testIndex(), 50))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 9, "4 top + 4 bottom when n exceeds the station count")
}

func TestBuildCoverage(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Capacity: 16, Zone: "centro"},
		{ID: 2, Capacity: 10, Zone: "centro"},
		{ID: 3, Capacity: 12, Zone: "collina"},
		{ID: 4, Capacity: 8, Zone: "gardolo"},
	}

	rows, err := BuildCoverage(stations, testIndex(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	centro := rows[0]
	assert.Equal(t, "centro", centro.Zone)
	assert.Equal(t, 2, centro.Served)
	assert.InDelta(t, 1.0, centro.Share, 1e-9)

	gardolo := rows[2]
	assert.Equal(t, 0, gardolo.Served)
	assert.InDelta(t, 0.0, gardolo.Share, 1e-9)

	_, err = BuildCoverage(stations, nil, 0)
	assert.ErrorContains(t, err, "at least 1")
}

func TestCoverageCSVAndSummary(t *testing.T) {
	rows := []ZoneCoverage{
		{Zone: "centro", Stations: 2, Served: 2, Capacity: 26, ServedCapacity: 26, Share: 1},
		{Zone: "collina", Stations: 1, Served: 1, Capacity: 12, ServedCapacity: 12, Share: 1},
	}

	path := filepath.Join(t.TempDir(), "coverage.csv")
	require.NoError(t, WriteCoverageCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "centro", records[1][0])

	s := CoverageSummary(rows)
	assert.Contains(t, s, "centro")
	assert.Contains(t, s, "100.0%")
}