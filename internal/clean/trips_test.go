package clean

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/pipeline"
)

func snap(station string, ts string, bikes int) models.StatusSnapshot {
	return models.StatusSnapshot{StationID: station, Timestamp: ts, Bikes: bikes}
}

func TestInferTripsPickupsFromDeltas(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	snaps := []models.StatusSnapshot{
		snap("s1", "20220601T080000", 10),
		snap("s1", "20220601T081000", 7),  // 3 pickups
		snap("s1", "20220601T082000", 9),  // 2 returns, no pickups
		snap("s1", "20220601T090000", 8),  // 1 pickup, next hour
		snap("s1", "20220601T093000", 20), // +12, rebalancing -> ignored
	}

	hourly, daily, err := InferTrips(snaps, 6, loc)
	require.NoError(t, err)
	require.Len(t, hourly, 2)

	assert.Equal(t, int64(3), hourly[0].Trips)
	assert.Equal(t, int32(8), hourly[0].Hour)
	assert.Equal(t, int64(1), hourly[1].Trips)
	assert.Equal(t, int32(9), hourly[1].Hour)

	require.Len(t, daily, 1)
	assert.Equal(t, "2022-06-01", daily[0].Date)
	assert.Equal(t, int64(4), daily[0].Trips)
}

func TestInferTripsDailyEqualsHourlySum(t *testing.T) {
	loc := time.UTC
	var snaps []models.StatusSnapshot
	bikes := 30
	for h := 6; h < 22; h++ {
		bikes -= h % 3
		snaps = append(snaps, snap("s9", fmt.Sprintf("20220615T%02d0000", h), bikes))
	}

	hourly, daily, err := InferTrips(snaps, 6, loc)
	require.NoError(t, err)

	var sum int64
	for _, r := range hourly {
		sum += r.Trips
	}
	require.Len(t, daily, 1)
	assert.Equal(t, sum, daily[0].Trips)
}

func TestInferTripsRebalancingThresholdIsConfigurable(t *testing.T) {
	snaps := []models.StatusSnapshot{
		snap("s1", "20220601T080000", 10),
		snap("s1", "20220601T081000", 5), // 5 pickups
	}

	hourly, _, err := InferTrips(snaps, 6, time.UTC)
	require.NoError(t, err)
	require.Len(t, hourly, 1)
	assert.Equal(t, int64(5), hourly[0].Trips)

	// with a tighter threshold the same delta counts as rebalancing
	hourly, _, err = InferTrips(snaps, 4, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, hourly)
}

func TestLoadSnapshots(t *testing.T) {
	dir := t.TempDir()
	lines := `{"station_id":"1121","name":"Bren Center","lat":46.09,"lon":11.12,"bikes":4,"docks":8,"timestamp":"20220601T080000"}
{"station_id":"1122","name":"Piazza Dante","lat":46.07,"lon":11.12,"bikes":2,"docks":10,"timestamp":"20220601T080000"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status_20220601T080000.ndjson"), []byte(lines), 0o644))

	snaps, err := LoadSnapshots(dir)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "1121", snaps[0].StationID)
	assert.Equal(t, 4, snaps[0].Bikes)
}

func TestLoadSnapshotsEmptyDir(t *testing.T) {
	_, err := LoadSnapshots(t.TempDir())
	var emptyErr *pipeline.EmptyResultError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestTripTablesRoundTrip(t *testing.T) {
	hourRows := []models.TripHourRow{{StationID: "s1", Date: "2022-06-01", Hour: 8, Trips: 3}}
	dayRows := []models.TripDayRow{{StationID: "s1", Date: "2022-06-01", Trips: 3}}

	dir := t.TempDir()
	hourPath := filepath.Join(dir, pipeline.TripHourFile)
	dayPath := filepath.Join(dir, pipeline.TripDayFile)
	require.NoError(t, WriteTripTables(hourPath, dayPath, hourRows, dayRows))

	backH, err := ReadTripHourTable(hourPath)
	require.NoError(t, err)
	assert.Equal(t, hourRows, backH)

	backD, err := ReadTripDayTable(dayPath)
	require.NoError(t, err)
	assert.Equal(t, dayRows, backD)
}
