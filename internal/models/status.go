package models

// StatusSnapshot is one station record from a live-status poll cycle, as
// persisted in the NDJSON snapshot files.
type StatusSnapshot struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Bikes     int     `json:"bikes"`
	Docks     int     `json:"docks"`
	Timestamp string  `json:"timestamp"` // local time, 20060102T150405
}

// SnapshotTimestampLayout is the format of StatusSnapshot.Timestamp and of the
// snapshot file names.
const SnapshotTimestampLayout = "20060102T150405"
