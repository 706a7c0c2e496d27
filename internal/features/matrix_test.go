package features

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/models"
)

func testStations() []models.Station {
	return []models.Station{
		{ID: 1, Name: "Piazza Dante", Capacity: 16, Zone: "centro", Point: orb.Point{11.12, 46.07}},
		{ID: 2, Name: "Mesiano", Capacity: 10, Zone: "collina", Point: orb.Point{11.14, 46.07}},
	}
}

func TestBuildStationDayRowsGridCoversAllStationsAndDates(t *testing.T) {
	hours := []models.StationHourRow{
		{StationID: 1, Date: "2022-06-01", Hour: 8, DepUrb: 2, DepTotal: 2},
		{StationID: 1, Date: "2022-06-02", Hour: 8, DepUrb: 3, DepTotal: 3},
	}
	temporal := BuildTemporal(
		[]models.MobilityDay{{Date: day(2022, 6, 1), Transit: -18, Work: -25}},
		[]models.WeatherDay{{Date: day(2022, 6, 1), TempMax: 24}},
	)

	rows := BuildStationDayRows(testStations(), hours, temporal)

	// 2 stations x 2 dates; station 2 never appears in the hourly table but
	// still gets grid rows with zero departures
	require.Len(t, rows, 4)

	byKey := make(map[string]models.StationDayRow)
	for _, r := range rows {
		byKey[r.Date+"#"+string(rune('0'+r.StationID))] = r
	}
	assert.Equal(t, int64(2), byKey["2022-06-01#1"].DepUrbDay)
	assert.Equal(t, int64(0), byKey["2022-06-01#2"].DepTotDay)
	assert.InDelta(t, -18, byKey["2022-06-01#1"].MobTransit, 1e-9)
	assert.Equal(t, "centro", byKey["2022-06-01#1"].Zone)
	// date without covariates still carries calendar flags
	assert.Equal(t, int32(3), byKey["2022-06-02#1"].Dow)
}

func TestBuildModelMatrixHourPreservesRowCount(t *testing.T) {
	trips := []models.TripHourRow{
		{StationID: "1", Date: "2022-06-01", Hour: 8, Trips: 3},
		{StationID: "1", Date: "2022-06-01", Hour: 9, Trips: 1},
		{StationID: "2", Date: "2022-06-01", Hour: 8, Trips: 2},
	}
	temporal := BuildTemporal(
		[]models.MobilityDay{{Date: day(2022, 6, 1), Transit: -18, Work: -25}},
		[]models.WeatherDay{{Date: day(2022, 6, 1), TempMax: 24, PrecipMM: 0}},
	)
	gtfsHours := []models.StationHourRow{
		{StationID: 1, Date: "2022-06-01", Hour: 8, DepTotal: 12},
	}

	rows, err := BuildModelMatrixHour(trips, testStations(), temporal, gtfsHours)
	require.NoError(t, err)

	// left join on the outcome table: same row count, no duplicates
	require.Len(t, rows, len(trips))

	assert.Equal(t, int64(12), rows[0].GtfsDep)
	assert.Equal(t, int64(0), rows[1].GtfsDep, "missing GTFS supply joins as 0, not null")
	assert.Equal(t, "centro", rows[0].Zone)
	assert.Equal(t, "collina", rows[2].Zone)
	assert.InDelta(t, 24, rows[0].TempMax, 1e-9)
	assert.Equal(t, int32(6), rows[0].Month)
}

func TestBuildModelMatrixHourRejectsNonNumericStation(t *testing.T) {
	trips := []models.TripHourRow{{StationID: "abc", Date: "2022-06-01", Hour: 8}}

	_, err := BuildModelMatrixHour(trips, nil, nil, nil)
	assert.ErrorContains(t, err, "non-numeric station id")
}

func TestBuildModelMatrixDay(t *testing.T) {
	trips := []models.TripDayRow{
		{StationID: "1", Date: "2022-06-01", Trips: 14},
	}
	temporal := BuildTemporal(
		[]models.MobilityDay{{Date: day(2022, 6, 1), Transit: -18, Work: -25}},
		[]models.WeatherDay{{Date: day(2022, 6, 1), TempMax: 24, PrecipMM: 2}},
	)
	gtfsHours := []models.StationHourRow{
		{StationID: 1, Date: "2022-06-01", Hour: 8, DepTotal: 12},
		{StationID: 1, Date: "2022-06-01", Hour: 9, DepTotal: 8},
	}

	rows, err := BuildModelMatrixDay(trips, testStations(), temporal, gtfsHours)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, int64(14), r.Trips)
	assert.Equal(t, int64(20), r.GtfsDep, "daily supply is the sum over hours")
	assert.Equal(t, int32(22), r.Week)
	assert.Equal(t, int32(2), r.Dow)
	assert.Equal(t, int32(0), r.IsWeekend)
}
