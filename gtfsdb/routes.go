package gtfsdb

import (
	"database/sql"
	"fmt"
)

// Route represents a transit route in one GTFS feed partition
type Route struct {
	FeedID    string // feed partition
	ID        string // route_id
	AgencyID  string // agency_id
	ShortName string // route_short_name
	LongName  string // route_long_name
	Type      int    // route_type
}

// InsertRoutes adds the routes of one feed partition to the database
func InsertRoutes(db *sql.DB, routes []Route) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO routes (
			feed_id, route_id, agency_id, route_short_name, route_long_name, route_type
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, route := range routes {
		_, err := stmt.Exec(
			route.FeedID, route.ID, route.AgencyID, route.ShortName, route.LongName, route.Type,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting route: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createRoutesTable(tx *sql.Tx) {
	createTable(tx, "routes", `
		CREATE TABLE IF NOT EXISTS routes (
			feed_id TEXT NOT NULL,
			route_id TEXT NOT NULL,
			agency_id TEXT,
			route_short_name TEXT,
			route_long_name TEXT,
			route_type INTEGER DEFAULT 3,
			PRIMARY KEY (feed_id, route_id)
		);`,
	)
}
