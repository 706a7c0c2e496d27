package gtfsdb

import (
	"database/sql"
	"fmt"
)

// Stop represents a transit stop in one GTFS feed partition
type Stop struct {
	FeedID string  // feed partition (e.g. "urb", "ext")
	ID     string  // stop_id
	Code   string  // stop_code
	Name   string  // stop_name
	Lat    float64 // stop_lat
	Lon    float64 // stop_lon
	ZoneID string  // zone_id
}

// InsertStops adds the stops of one feed partition to the database
func InsertStops(db *sql.DB, stops []Stop) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO stops (
			feed_id, stop_id, stop_code, stop_name, stop_lat, stop_lon, zone_id
		) VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, stop := range stops {
		_, err := stmt.Exec(
			stop.FeedID, stop.ID, stop.Code, stop.Name, stop.Lat, stop.Lon, stop.ZoneID,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting stop: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createStopsTable(tx *sql.Tx) {
	createTable(tx, "stops", `
		CREATE TABLE IF NOT EXISTS stops (
			feed_id TEXT NOT NULL,
			stop_id TEXT NOT NULL,
			stop_code TEXT,
			stop_name TEXT NOT NULL,
			stop_lat REAL NOT NULL,
			stop_lon REAL NOT NULL,
			zone_id TEXT,
			PRIMARY KEY (feed_id, stop_id)
		);`,
	)
}
