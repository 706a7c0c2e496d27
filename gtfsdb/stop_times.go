package gtfsdb

import (
	"database/sql"
	"fmt"
)

// StopTime represents a scheduled departure at a stop within a trip.
// DepartureSecs is seconds after midnight of the service day and may exceed
// 86400 for overnight service (GTFS times in the 24:00–47:59 range).
type StopTime struct {
	FeedID        string // feed partition
	TripID        string // trip_id
	StopID        string // stop_id
	StopSequence  int    // stop_sequence
	DepartureSecs int    // departure_time as seconds
}

// InsertStopTimes inserts multiple stop times using a transaction for better performance
func InsertStopTimes(db *sql.DB, stopTimes []StopTime) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO stop_times (
			feed_id, trip_id, stop_id, stop_sequence, departure_secs
		) VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, st := range stopTimes {
		_, err := stmt.Exec(st.FeedID, st.TripID, st.StopID, st.StopSequence, st.DepartureSecs)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting stop_time: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createStopTimesTable(tx *sql.Tx) {
	createTable(tx, "stop_times", `
		CREATE TABLE IF NOT EXISTS stop_times (
			feed_id TEXT NOT NULL,
			trip_id TEXT NOT NULL,
			stop_id TEXT NOT NULL,
			stop_sequence INTEGER NOT NULL,
			departure_secs INTEGER NOT NULL,
			PRIMARY KEY (feed_id, trip_id, stop_sequence)
		);`,
	)
}
