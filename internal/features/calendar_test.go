package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/gtfsdb"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mondayService(id string) ServiceCalendar {
	return ServiceCalendar{
		ServiceID: id,
		Weekdays:  [7]bool{true, false, false, false, false, false, false},
		Start:     day(2025, 1, 1),
		End:       day(2025, 12, 31),
	}
}

func TestActiveServicesWeeklyPattern(t *testing.T) {
	cals := []ServiceCalendar{mondayService("X")}

	// 2025-03-03 is a Monday inside the window
	assert.True(t, ActiveServices(day(2025, 3, 3), cals, nil)["X"])
	// Tuesday is off-pattern
	assert.False(t, ActiveServices(day(2025, 3, 4), cals, nil)["X"])
	// a Monday outside the validity window
	assert.False(t, ActiveServices(day(2026, 3, 2), cals, nil)["X"])
}

func TestActiveServicesRemoveException(t *testing.T) {
	cals := []ServiceCalendar{mondayService("X")}
	excs := []ServiceException{{ServiceID: "X", Date: day(2025, 3, 10), Added: false}}

	// 2025-03-10 is a Monday but the exception removes service X
	assert.False(t, ActiveServices(day(2025, 3, 10), cals, excs)["X"])
	assert.True(t, ActiveServices(day(2025, 3, 3), cals, excs)["X"])
}

func TestActiveServicesAddException(t *testing.T) {
	cals := []ServiceCalendar{mondayService("X")}
	// 2025-03-09 is a Sunday, off-pattern, but explicitly added
	excs := []ServiceException{{ServiceID: "X", Date: day(2025, 3, 9), Added: true}}

	assert.True(t, ActiveServices(day(2025, 3, 9), cals, excs)["X"])
}

func TestFeedWindowSpansAllCalendars(t *testing.T) {
	cals := []ServiceCalendar{
		{ServiceID: "a", Start: day(2025, 2, 1), End: day(2025, 6, 30)},
		{ServiceID: "b", Start: day(2025, 1, 15), End: day(2025, 5, 31)},
	}

	start, end, err := FeedWindow(cals)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 1, 15), start)
	assert.Equal(t, day(2025, 6, 30), end)

	_, _, err = FeedWindow(nil)
	assert.Error(t, err)
}

func TestGlobalWindowIsTightestIntersection(t *testing.T) {
	windows := [][2]time.Time{
		{day(2025, 1, 1), day(2025, 6, 30)},
		{day(2025, 2, 15), day(2025, 8, 31)},
	}

	start, end, err := GlobalWindow(windows)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 2, 15), start)
	assert.Equal(t, day(2025, 6, 30), end)
}

func TestGlobalWindowEmptyIntersection(t *testing.T) {
	windows := [][2]time.Time{
		{day(2025, 1, 1), day(2025, 2, 28)},
		{day(2025, 6, 1), day(2025, 8, 31)},
	}

	_, _, err := GlobalWindow(windows)
	assert.ErrorContains(t, err, "do not overlap")
}

func TestCalendarFromRow(t *testing.T) {
	cal, err := CalendarFromRow(gtfsdb.Calendar{
		ServiceID: "wk",
		Monday:    1,
		Friday:    1,
		StartDate: "20250101",
		EndDate:   "20251231",
	})
	require.NoError(t, err)
	assert.True(t, cal.Weekdays[0])
	assert.True(t, cal.Weekdays[4])
	assert.False(t, cal.Weekdays[6])
	assert.Equal(t, day(2025, 1, 1), cal.Start)

	_, err = CalendarFromRow(gtfsdb.Calendar{ServiceID: "bad", StartDate: "01-01-2025"})
	assert.Error(t, err)
}

func TestExceptionFromRow(t *testing.T) {
	exc, err := ExceptionFromRow(gtfsdb.CalendarDate{
		ServiceID:     "wk",
		Date:          "20250310",
		ExceptionType: gtfsdb.ExceptionRemoved,
	})
	require.NoError(t, err)
	assert.False(t, exc.Added)
	assert.Equal(t, day(2025, 3, 10), exc.Date)
}
