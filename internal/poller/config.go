// Package poller fetches live station status from the Bicincittà endpoint
// and writes NDJSON snapshots for the trip-inference stage.
package poller

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the poller's runtime settings, read from the environment with
// the BIKESHARE_POLLER prefix.
type Config struct {
	CityID    string        `envconfig:"CITY_ID" default:"187"` // Trento
	BaseURL   string        `envconfig:"BASE_URL" default:"https://www.bicincitta.com/frmLeStazioniComune.aspx"`
	UserAgent string        `envconfig:"USER_AGENT" default:"trentomobility-research/1.0"`
	Interval  time.Duration `envconfig:"INTERVAL" default:"5m"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"20s"`
	OutputDir string        `envconfig:"OUTPUT_DIR" default:"data/raw/bikesharing_trento/status"`
}

// LoadConfig reads the poller configuration from the environment, after
// loading a local .env file when present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("bikeshare_poller", &cfg); err != nil {
		return Config{}, fmt.Errorf("error reading poller config: %w", err)
	}
	if cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}
	return cfg, nil
}
