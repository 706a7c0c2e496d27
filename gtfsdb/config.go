package gtfsdb

// Config holds the options for opening the interim GTFS store.
type Config struct {
	DBPath  string // SQLite database file, use ":memory:" in tests
	verbose bool   // log per-partition import counts
}

func NewConfig(dbPath string, verbose bool) Config {
	return Config{DBPath: dbPath, verbose: verbose}
}
