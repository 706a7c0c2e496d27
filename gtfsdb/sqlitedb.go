package gtfsdb

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// InitDB creates a new SQLite database with tables for the GTFS feed
// partitions used by the pipeline. Every transit table carries a feed_id
// column so urban and extra-urban feeds coexist in one interim store.
func InitDB(config Config) (*sql.DB, error) {
	// Open database connection
	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	// Create tables within a transaction
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	createTables(tx)

	// Create indexes for better performance
	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_trips_service_id ON trips(feed_id, service_id);
		CREATE INDEX IF NOT EXISTS idx_trips_route_id ON trips(feed_id, route_id);
		CREATE INDEX IF NOT EXISTS idx_stop_times_trip_id ON stop_times(feed_id, trip_id);
		CREATE INDEX IF NOT EXISTS idx_stop_times_stop_id ON stop_times(feed_id, stop_id);
		CREATE INDEX IF NOT EXISTS idx_calendar_dates_date ON calendar_dates(feed_id, date);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		log.Fatalf("error creating indexes: %v", err)
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return db, nil
}

func createTables(tx *sql.Tx) {
	createFeedsTable(tx)
	createStopsTable(tx)
	createRoutesTable(tx)
	createTripsTable(tx)
	createStopTimesTable(tx)
	createCalendarTable(tx)
	createCalendarDatesTable(tx)
}

func createFeedsTable(tx *sql.Tx) {
	createTable(tx, "feeds", `
		CREATE TABLE IF NOT EXISTS feeds (
			feed_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			imported_at TEXT NOT NULL
		);`,
	)
}
