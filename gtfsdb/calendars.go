package gtfsdb

import (
	"database/sql"
	"fmt"
)

// Calendar represents the weekly service pattern for trips in one feed partition
type Calendar struct {
	FeedID    string // feed partition
	ServiceID string // service_id
	Monday    int    // monday
	Tuesday   int    // tuesday
	Wednesday int    // wednesday
	Thursday  int    // thursday
	Friday    int    // friday
	Saturday  int    // saturday
	Sunday    int    // sunday
	StartDate string // start_date (YYYYMMDD)
	EndDate   string // end_date (YYYYMMDD)
}

// Calendar date exception types per the GTFS reference.
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// CalendarDate is a single-date exception overriding the weekly pattern
type CalendarDate struct {
	FeedID        string // feed partition
	ServiceID     string // service_id
	Date          string // date (YYYYMMDD)
	ExceptionType int    // 1 = service added, 2 = service removed
}

// InsertCalendars adds the weekly calendar entries of one feed partition
func InsertCalendars(db *sql.DB, calendars []Calendar) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO calendar (
			feed_id, service_id, monday, tuesday, wednesday, thursday,
			friday, saturday, sunday, start_date, end_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, cal := range calendars {
		_, err := stmt.Exec(
			cal.FeedID, cal.ServiceID, cal.Monday, cal.Tuesday, cal.Wednesday, cal.Thursday,
			cal.Friday, cal.Saturday, cal.Sunday, cal.StartDate, cal.EndDate,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting calendar: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// InsertCalendarDates adds the calendar exceptions of one feed partition
func InsertCalendarDates(db *sql.DB, dates []CalendarDate) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO calendar_dates (
			feed_id, service_id, date, exception_type
		) VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, cd := range dates {
		_, err := stmt.Exec(cd.FeedID, cd.ServiceID, cd.Date, cd.ExceptionType)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting calendar date: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createCalendarTable(tx *sql.Tx) {
	createTable(tx, "calendar", `
		CREATE TABLE IF NOT EXISTS calendar (
			feed_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			monday INTEGER NOT NULL,
			tuesday INTEGER NOT NULL,
			wednesday INTEGER NOT NULL,
			thursday INTEGER NOT NULL,
			friday INTEGER NOT NULL,
			saturday INTEGER NOT NULL,
			sunday INTEGER NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			PRIMARY KEY (feed_id, service_id)
		);`,
	)
}

func createCalendarDatesTable(tx *sql.Tx) {
	createTable(tx, "calendar_dates", `
		CREATE TABLE IF NOT EXISTS calendar_dates (
			feed_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			date TEXT NOT NULL,
			exception_type INTEGER NOT NULL,
			PRIMARY KEY (feed_id, service_id, date)
		);`,
	)
}
