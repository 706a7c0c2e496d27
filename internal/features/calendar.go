package features

import (
	"fmt"
	"time"

	"bikeshare.trentomobility.org/gtfsdb"
)

const gtfsDateLayout = "20060102"

// ServiceCalendar is a weekly service pattern with its validity window.
// Weekdays is Monday-first, matching the GTFS calendar columns.
type ServiceCalendar struct {
	ServiceID string
	Weekdays  [7]bool
	Start     time.Time
	End       time.Time
}

// ServiceException is a single-date override of the weekly pattern.
type ServiceException struct {
	ServiceID string
	Date      time.Time
	Added     bool
}

// CalendarFromRow converts a stored calendar row, parsing its date window.
func CalendarFromRow(row gtfsdb.Calendar) (ServiceCalendar, error) {
	start, err := time.Parse(gtfsDateLayout, row.StartDate)
	if err != nil {
		return ServiceCalendar{}, fmt.Errorf("service %s: bad start_date %q: %w", row.ServiceID, row.StartDate, err)
	}
	end, err := time.Parse(gtfsDateLayout, row.EndDate)
	if err != nil {
		return ServiceCalendar{}, fmt.Errorf("service %s: bad end_date %q: %w", row.ServiceID, row.EndDate, err)
	}
	return ServiceCalendar{
		ServiceID: row.ServiceID,
		Weekdays: [7]bool{
			row.Monday == 1, row.Tuesday == 1, row.Wednesday == 1,
			row.Thursday == 1, row.Friday == 1, row.Saturday == 1, row.Sunday == 1,
		},
		Start: start,
		End:   end,
	}, nil
}

// ExceptionFromRow converts a stored calendar-date row.
func ExceptionFromRow(row gtfsdb.CalendarDate) (ServiceException, error) {
	date, err := time.Parse(gtfsDateLayout, row.Date)
	if err != nil {
		return ServiceException{}, fmt.Errorf("service %s: bad exception date %q: %w", row.ServiceID, row.Date, err)
	}
	return ServiceException{
		ServiceID: row.ServiceID,
		Date:      date,
		Added:     row.ExceptionType == gtfsdb.ExceptionAdded,
	}, nil
}

// ActiveServices returns the service ids running on the given date. A service
// runs if its weekly pattern flags the weekday and the date falls inside its
// validity window; exceptions strictly override the pattern for their date.
func ActiveServices(date time.Time, calendars []ServiceCalendar, exceptions []ServiceException) map[string]bool {
	date = truncateDay(date)
	weekday := (int(date.Weekday()) + 6) % 7 // Monday-first

	active := make(map[string]bool)
	for _, cal := range calendars {
		if cal.Weekdays[weekday] && !date.Before(truncateDay(cal.Start)) && !date.After(truncateDay(cal.End)) {
			active[cal.ServiceID] = true
		}
	}
	for _, exc := range exceptions {
		if !truncateDay(exc.Date).Equal(date) {
			continue
		}
		if exc.Added {
			active[exc.ServiceID] = true
		} else {
			delete(active, exc.ServiceID)
		}
	}
	return active
}

// FeedWindow is the [earliest start, latest end] span of one feed partition's
// calendars.
func FeedWindow(calendars []ServiceCalendar) (time.Time, time.Time, error) {
	if len(calendars) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("feed has no calendar entries")
	}
	start, end := calendars[0].Start, calendars[0].End
	for _, cal := range calendars[1:] {
		if cal.Start.Before(start) {
			start = cal.Start
		}
		if cal.End.After(end) {
			end = cal.End
		}
	}
	return truncateDay(start), truncateDay(end), nil
}

// GlobalWindow intersects the partition windows: the latest start and the
// earliest end. Feature rows are only generated for dates where every
// partition has service data, so an empty intersection is an error.
func GlobalWindow(windows [][2]time.Time) (time.Time, time.Time, error) {
	if len(windows) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no partition windows given")
	}
	start, end := windows[0][0], windows[0][1]
	for _, w := range windows[1:] {
		if w[0].After(start) {
			start = w[0]
		}
		if w[1].Before(end) {
			end = w[1]
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"partition calendars do not overlap: intersection %s..%s is empty",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
