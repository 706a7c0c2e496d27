package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jamespfennell/gtfs"
)

// Client is the entry point for the interim GTFS store
type Client struct {
	config        Config
	DB            *sql.DB
	importRuntime time.Duration
}

// NewClient creates a new Client with the provided configuration
func NewClient(config Config) (*Client, error) {
	db, err := InitDB(config)
	if err != nil {
		return nil, fmt.Errorf("error initializing GTFS database: %w", err)
	}

	return &Client{config: config, DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// ImportStatic stores a parsed GTFS static feed as one partition of the
// interim database, replacing any previous import of the same feed_id.
func (c *Client) ImportStatic(ctx context.Context, feedID, source string, static *gtfs.Static) error {
	startTime := time.Now()
	defer func() {
		c.importRuntime = time.Since(startTime)
	}()

	if err := c.deleteFeed(ctx, feedID); err != nil {
		return err
	}

	_, err := c.DB.ExecContext(ctx,
		`INSERT OR REPLACE INTO feeds (feed_id, source, imported_at) VALUES (?, ?, ?);`,
		feedID, source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error registering feed %s: %w", feedID, err)
	}

	var stops []Stop
	for _, s := range static.Stops {
		if s.Latitude == nil || s.Longitude == nil {
			continue // stops without coordinates cannot take part in spatial matching
		}
		stops = append(stops, Stop{
			FeedID: feedID,
			ID:     s.Id,
			Code:   s.Code,
			Name:   s.Name,
			Lat:    *s.Latitude,
			Lon:    *s.Longitude,
			ZoneID: s.ZoneId,
		})
	}
	if err := InsertStops(c.DB, stops); err != nil {
		return err
	}

	var routes []Route
	for _, r := range static.Routes {
		route := Route{
			FeedID:    feedID,
			ID:        r.Id,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      int(r.Type),
		}
		if r.Agency != nil {
			route.AgencyID = r.Agency.Id
		}
		routes = append(routes, route)
	}
	if err := InsertRoutes(c.DB, routes); err != nil {
		return err
	}

	var calendars []Calendar
	var calendarDates []CalendarDate
	for _, s := range static.Services {
		calendars = append(calendars, Calendar{
			FeedID:    feedID,
			ServiceID: s.Id,
			Monday:    boolToInt(s.Monday),
			Tuesday:   boolToInt(s.Tuesday),
			Wednesday: boolToInt(s.Wednesday),
			Thursday:  boolToInt(s.Thursday),
			Friday:    boolToInt(s.Friday),
			Saturday:  boolToInt(s.Saturday),
			Sunday:    boolToInt(s.Sunday),
			StartDate: s.StartDate.Format(dateLayout),
			EndDate:   s.EndDate.Format(dateLayout),
		})
		for _, d := range s.AddedDates {
			calendarDates = append(calendarDates, CalendarDate{
				FeedID:        feedID,
				ServiceID:     s.Id,
				Date:          d.Format(dateLayout),
				ExceptionType: ExceptionAdded,
			})
		}
		for _, d := range s.RemovedDates {
			calendarDates = append(calendarDates, CalendarDate{
				FeedID:        feedID,
				ServiceID:     s.Id,
				Date:          d.Format(dateLayout),
				ExceptionType: ExceptionRemoved,
			})
		}
	}
	if err := InsertCalendars(c.DB, calendars); err != nil {
		return err
	}
	if err := InsertCalendarDates(c.DB, calendarDates); err != nil {
		return err
	}

	var trips []Trip
	var stopTimes []StopTime
	for _, t := range static.Trips {
		if t.Route == nil || t.Service == nil {
			continue
		}
		trips = append(trips, Trip{
			FeedID:    feedID,
			ID:        t.ID,
			RouteID:   t.Route.Id,
			ServiceID: t.Service.Id,
		})
		for _, st := range t.StopTimes {
			if st.Stop == nil || st.DepartureTime < 0 {
				continue
			}
			stopTimes = append(stopTimes, StopTime{
				FeedID:        feedID,
				TripID:        t.ID,
				StopID:        st.Stop.Id,
				StopSequence:  st.StopSequence,
				DepartureSecs: int(st.DepartureTime / time.Second),
			})
		}
	}
	if err := InsertTrips(c.DB, trips); err != nil {
		return err
	}
	if err := InsertStopTimes(c.DB, stopTimes); err != nil {
		return err
	}

	return nil
}

// ImportRuntime reports how long the last ImportStatic call took.
func (c *Client) ImportRuntime() time.Duration {
	return c.importRuntime
}

func (c *Client) deleteFeed(ctx context.Context, feedID string) error {
	for _, table := range []string{"stop_times", "trips", "calendar_dates", "calendar", "routes", "stops", "feeds"} {
		if _, err := c.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE feed_id = ?;", table), feedID); err != nil {
			return fmt.Errorf("error clearing %s for feed %s: %w", table, feedID, err)
		}
	}
	return nil
}

const dateLayout = "20060102"

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
