package models

import "time"

// WeatherDay is one day of cleaned ERA5 weather.
type WeatherDay struct {
	Date     time.Time
	TempMax  float64
	TempMin  float64
	PrecipMM float64
}

// MobilityDay is one day of the Google Mobility report for the study region.
// Values are percent change from the pre-pandemic baseline.
type MobilityDay struct {
	Date        time.Time
	Retail      float64
	Grocery     float64
	Parks       float64
	Transit     float64
	Work        float64
	Residential float64
	PlaceID     string
	ISOCode     string
}

// TemporalDay is the per-date covariate row produced by the feature builder:
// mobility + weather + calendar flags and simple weather transforms.
type TemporalDay struct {
	Date       time.Time
	MobRetail  float64
	MobGrocery float64
	MobParks   float64
	MobTransit float64
	MobWork    float64
	TempMax    float64
	TempMin    float64
	PrecipMM   float64
	TempMaxSq  float64
	RainBinary int
	RainHeavy  int
	Dow        int // 0=Monday .. 6=Sunday
	IsWeekend  bool
	IsHoliday  bool
}

// Dow returns the Monday-based weekday index used throughout the features.
func Dow(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
