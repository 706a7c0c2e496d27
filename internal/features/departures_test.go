package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/gtfsdb"
	"bikeshare.trentomobility.org/internal/models"
)

// dailyService runs every day of the first week of June 2025.
func dailyService(id string) ServiceCalendar {
	return ServiceCalendar{
		ServiceID: id,
		Weekdays:  [7]bool{true, true, true, true, true, true, true},
		Start:     day(2025, 6, 1),
		End:       day(2025, 6, 7),
	}
}

func TestBuildStationHoursCountsPerPartition(t *testing.T) {
	parts := []Partition{
		{
			Name:      PartitionUrban,
			Calendars: []ServiceCalendar{dailyService("u")},
			Departures: []gtfsdb.Departure{
				{StopID: "s1", ServiceID: "u", DepartureSecs: 8 * 3600},
				{StopID: "s1", ServiceID: "u", DepartureSecs: 8*3600 + 1800},
				{StopID: "s1", ServiceID: "u", DepartureSecs: 9 * 3600},
			},
			StopStations: map[string][]int{"s1": {1}},
		},
		{
			Name:      PartitionExtraUrban,
			Calendars: []ServiceCalendar{dailyService("e")},
			Departures: []gtfsdb.Departure{
				{StopID: "x1", ServiceID: "e", DepartureSecs: 8 * 3600},
			},
			StopStations: map[string][]int{"x1": {1}},
		},
	}

	rows, err := BuildStationHours(parts)
	require.NoError(t, err)

	// 7 dates x 2 hours for station 1
	require.Len(t, rows, 14)
	first := rows[0]
	assert.Equal(t, int64(1), first.StationID)
	assert.Equal(t, "2025-06-01", first.Date)
	assert.Equal(t, int32(8), first.Hour)
	assert.Equal(t, int64(2), first.DepUrb)
	assert.Equal(t, int64(1), first.DepExt)
	assert.Equal(t, int64(3), first.DepTotal)

	second := rows[1]
	assert.Equal(t, int32(9), second.Hour)
	assert.Equal(t, int64(1), second.DepUrb)
	assert.Equal(t, int64(0), second.DepExt)
}

func TestBuildStationHoursOvernightAttribution(t *testing.T) {
	parts := []Partition{{
		Name:      PartitionUrban,
		Calendars: []ServiceCalendar{dailyService("u")},
		Departures: []gtfsdb.Departure{
			// 25:30 on the service day: overnight, hour 25
			{StopID: "s1", ServiceID: "u", DepartureSecs: 25*3600 + 1800},
		},
		StopStations: map[string][]int{"s1": {1}},
	}}

	rows, err := BuildStationHours(parts)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, int32(25), rows[0].Hour)
}

func TestBuildStationHoursInactiveServicesExcluded(t *testing.T) {
	cal := mondayService("mon") // Mondays only, all of 2025
	parts := []Partition{{
		Name:      PartitionUrban,
		Calendars: []ServiceCalendar{cal},
		Exceptions: []ServiceException{
			{ServiceID: "mon", Date: day(2025, 3, 10), Added: false},
		},
		Departures: []gtfsdb.Departure{
			{StopID: "s1", ServiceID: "mon", DepartureSecs: 8 * 3600},
		},
		StopStations: map[string][]int{"s1": {1}},
	}}

	rows, err := BuildStationHours(parts)
	require.NoError(t, err)

	dates := make(map[string]bool)
	for _, r := range rows {
		dates[r.Date] = true
	}
	assert.True(t, dates["2025-03-03"])
	assert.False(t, dates["2025-03-10"], "removed exception date must produce no departures")
	assert.False(t, dates["2025-03-04"], "off-pattern weekday must produce no departures")
}

func TestBuildStationHoursRejectsForeignHourConvention(t *testing.T) {
	parts := []Partition{{
		Name:      PartitionUrban,
		Calendars: []ServiceCalendar{dailyService("u")},
		Departures: []gtfsdb.Departure{
			{StopID: "s1", ServiceID: "u", DepartureSecs: 49 * 3600},
		},
		StopStations: map[string][]int{"s1": {1}},
	}}

	_, err := BuildStationHours(parts)
	assert.ErrorContains(t, err, "overnight convention")
}

func TestBuildStationHoursRejectsUnknownPartition(t *testing.T) {
	parts := []Partition{{Name: "suburban", Calendars: []ServiceCalendar{dailyService("u")}}}

	_, err := BuildStationHours(parts)
	assert.ErrorContains(t, err, "unknown partition")
}

func TestDailyDepartureSumsRoundTrip(t *testing.T) {
	hours := []models.StationHourRow{
		{StationID: 1, Date: "2025-06-01", Hour: 8, DepUrb: 2, DepExt: 1, DepTotal: 3},
		{StationID: 1, Date: "2025-06-01", Hour: 25, DepUrb: 1, DepExt: 0, DepTotal: 1},
		{StationID: 1, Date: "2025-06-02", Hour: 8, DepUrb: 5, DepExt: 0, DepTotal: 5},
	}

	sums := DailyDepartureSums(hours)
	s := sums[stationDate{station: 1, date: "2025-06-01"}]
	assert.Equal(t, int64(3), s.urb)
	assert.Equal(t, int64(1), s.ext)
	assert.Equal(t, int64(4), s.tot)
}
