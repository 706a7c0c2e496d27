package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FeedConfig identifies one GTFS partition. Source may be a zip file or an
// extracted feed directory.
type FeedConfig struct {
	Name   string `yaml:"name" validate:"required"`
	Source string `yaml:"source" validate:"required"`
}

// RegionConfig selects the Google Mobility rows to keep.
type RegionConfig struct {
	Name      string `yaml:"name" validate:"required"`
	SubRegion string `yaml:"sub_region"`
}

// FeaturesConfig holds the spatial-matching and feature-engineering knobs.
// RouteWeight is the intermodality index weight: idx = stops + RouteWeight*routes.
type FeaturesConfig struct {
	BufferRadiiM       []int   `yaml:"buffer_radii_m" validate:"required,min=1,dive,gt=0"`
	AttributionRadiusM int     `yaml:"attribution_radius_m" validate:"gt=0"`
	RouteWeight        float64 `yaml:"route_weight" validate:"gte=0"`
}

// TripsConfig controls the snapshot-to-trips inference.
// RebalanceThreshold is the absolute bike-count delta above which a change is
// attributed to a rebalancing van rather than user trips.
type TripsConfig struct {
	RebalanceThreshold int    `yaml:"rebalance_threshold" validate:"gt=0"`
	Timezone           string `yaml:"timezone" validate:"required"`
}

// ModelsConfig parameterizes the statistical models.
type ModelsConfig struct {
	HourSplineDF  int    `yaml:"hour_spline_df" validate:"gt=2"`
	TmaxSplineDF  int    `yaml:"tmax_spline_df" validate:"gt=2"`
	EventDate     string `yaml:"event_date" validate:"required"`
	DIDWindowDays int    `yaml:"did_window_days" validate:"gt=0"`
}

// Config is the root pipeline configuration.
type Config struct {
	Region   RegionConfig   `yaml:"region" validate:"required"`
	Feeds    []FeedConfig   `yaml:"feeds" validate:"required,min=1"`
	Features FeaturesConfig `yaml:"features" validate:"required"`
	Trips    TripsConfig    `yaml:"trips" validate:"required"`
	Models   ModelsConfig   `yaml:"models" validate:"required"`
}

// Default returns the configuration the original study ran with.
func Default() Config {
	return Config{
		Region: RegionConfig{
			Name:      "Trentino-South Tyrol",
			SubRegion: "Autonomous Province of Trento",
		},
		Feeds: []FeedConfig{
			{Name: "urb", Source: "data/external/gtfs/google_transit_urbano_tte"},
			{Name: "ext", Source: "data/external/gtfs/google_transit_extraurbano_tte"},
		},
		Features: FeaturesConfig{
			BufferRadiiM:       []int{300, 500},
			AttributionRadiusM: 300,
			RouteWeight:        0.5,
		},
		Trips: TripsConfig{
			RebalanceThreshold: 6,
			Timezone:           "Europe/Rome",
		},
		Models: ModelsConfig{
			HourSplineDF:  8,
			TmaxSplineDF:  6,
			EventDate:     "2022-06-15",
			DIDWindowDays: 60,
		},
	}
}

// Load reads and validates the pipeline configuration. An empty path or a
// missing file yields the defaults; a present but invalid file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config %s: %w", path, err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	for _, f := range cfg.Feeds {
		if err := v.Struct(f); err != nil {
			return Config{}, fmt.Errorf("invalid feed config %q: %w", f.Name, err)
		}
	}
	if _, err := cfg.ParsedEventDate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParsedEventDate returns the DID treatment date.
func (c Config) ParsedEventDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Models.EventDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid models.event_date %q: %w", c.Models.EventDate, err)
	}
	return t, nil
}
