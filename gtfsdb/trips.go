package gtfsdb

import (
	"database/sql"
	"fmt"
)

// Trip represents a scheduled trip in one GTFS feed partition
type Trip struct {
	FeedID    string // feed partition
	ID        string // trip_id
	RouteID   string // route_id
	ServiceID string // service_id
}

// InsertTrips adds the trips of one feed partition to the database
func InsertTrips(db *sql.DB, trips []Trip) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO trips (
			feed_id, trip_id, route_id, service_id
		) VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, trip := range trips {
		_, err := stmt.Exec(trip.FeedID, trip.ID, trip.RouteID, trip.ServiceID)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting trip: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createTripsTable(tx *sql.Tx) {
	createTable(tx, "trips", `
		CREATE TABLE IF NOT EXISTS trips (
			feed_id TEXT NOT NULL,
			trip_id TEXT NOT NULL,
			route_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			PRIMARY KEY (feed_id, trip_id)
		);`,
	)
}
