package gtfsdb

import (
	"context"
	"fmt"
)

// StopWithRoutes is a stop together with the number of distinct routes
// whose trips call at it.
type StopWithRoutes struct {
	Stop
	RouteCount int
}

// Departure is one scheduled departure joined with the trip it belongs to.
type Departure struct {
	StopID        string
	ServiceID     string
	RouteID       string
	DepartureSecs int
}

// FeedInfo describes one imported feed partition.
type FeedInfo struct {
	FeedID     string
	Source     string
	ImportedAt string
}

// Feeds lists the feed partitions present in the store.
func (c *Client) Feeds(ctx context.Context) ([]FeedInfo, error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT feed_id, source, imported_at FROM feeds ORDER BY feed_id;`)
	if err != nil {
		return nil, fmt.Errorf("error querying feeds: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	var feeds []FeedInfo
	for rows.Next() {
		var f FeedInfo
		if err := rows.Scan(&f.FeedID, &f.Source, &f.ImportedAt); err != nil {
			return nil, fmt.Errorf("error scanning feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// StopsWithRouteCounts returns every stop of every feed partition together
// with the number of distinct routes serving it. Stops no trip calls at get
// a count of zero.
func (c *Client) StopsWithRouteCounts(ctx context.Context) ([]StopWithRoutes, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT s.feed_id, s.stop_id, COALESCE(s.stop_code, ''), s.stop_name,
		       s.stop_lat, s.stop_lon, COALESCE(s.zone_id, ''),
		       COALESCE(rc.n_routes, 0)
		FROM stops s
		LEFT JOIN (
			SELECT st.feed_id, st.stop_id, COUNT(DISTINCT t.route_id) AS n_routes
			FROM stop_times st
			JOIN trips t ON t.feed_id = st.feed_id AND t.trip_id = st.trip_id
			GROUP BY st.feed_id, st.stop_id
		) rc ON rc.feed_id = s.feed_id AND rc.stop_id = s.stop_id
		ORDER BY s.feed_id, s.stop_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying stops with route counts: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	var stops []StopWithRoutes
	for rows.Next() {
		var s StopWithRoutes
		err := rows.Scan(&s.FeedID, &s.ID, &s.Code, &s.Name, &s.Lat, &s.Lon, &s.ZoneID, &s.RouteCount)
		if err != nil {
			return nil, fmt.Errorf("error scanning stop: %w", err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// CalendarsForFeed returns the weekly service patterns of one feed partition.
func (c *Client) CalendarsForFeed(ctx context.Context, feedID string) ([]Calendar, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT feed_id, service_id, monday, tuesday, wednesday, thursday,
		       friday, saturday, sunday, start_date, end_date
		FROM calendar WHERE feed_id = ?;
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("error querying calendar for feed %s: %w", feedID, err)
	}
	defer rows.Close() // nolint:errcheck

	var calendars []Calendar
	for rows.Next() {
		var cal Calendar
		err := rows.Scan(
			&cal.FeedID, &cal.ServiceID, &cal.Monday, &cal.Tuesday, &cal.Wednesday, &cal.Thursday,
			&cal.Friday, &cal.Saturday, &cal.Sunday, &cal.StartDate, &cal.EndDate,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning calendar: %w", err)
		}
		calendars = append(calendars, cal)
	}
	return calendars, rows.Err()
}

// CalendarDatesForFeed returns the service exceptions of one feed partition.
func (c *Client) CalendarDatesForFeed(ctx context.Context, feedID string) ([]CalendarDate, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT feed_id, service_id, date, exception_type
		FROM calendar_dates WHERE feed_id = ?;
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("error querying calendar dates for feed %s: %w", feedID, err)
	}
	defer rows.Close() // nolint:errcheck

	var dates []CalendarDate
	for rows.Next() {
		var cd CalendarDate
		if err := rows.Scan(&cd.FeedID, &cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, fmt.Errorf("error scanning calendar date: %w", err)
		}
		dates = append(dates, cd)
	}
	return dates, rows.Err()
}

// DeparturesForFeed returns every scheduled departure of one feed partition
// joined with the service and route of its trip.
func (c *Client) DeparturesForFeed(ctx context.Context, feedID string) ([]Departure, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT st.stop_id, t.service_id, t.route_id, st.departure_secs
		FROM stop_times st
		JOIN trips t ON t.feed_id = st.feed_id AND t.trip_id = st.trip_id
		WHERE st.feed_id = ?;
	`, feedID)
	if err != nil {
		return nil, fmt.Errorf("error querying departures for feed %s: %w", feedID, err)
	}
	defer rows.Close() // nolint:errcheck

	var departures []Departure
	for rows.Next() {
		var d Departure
		if err := rows.Scan(&d.StopID, &d.ServiceID, &d.RouteID, &d.DepartureSecs); err != nil {
			return nil, fmt.Errorf("error scanning departure: %w", err)
		}
		departures = append(departures, d)
	}
	return departures, rows.Err()
}
