package pipeline

import "path/filepath"

// Canonical file names of each stage's outputs. Stages locate their inputs
// through these so a rename cannot silently break the chain.
const (
	WeatherFile    = "meteo_daily.parquet"
	MobilityFile   = "mobility_trento.parquet"
	StationsFile   = "stations_clean.geojson"
	BoundariesFile = "confini_trento.parquet"
	GTFSDBFile     = "gtfs.db"

	TripHourFile = "station_hour.parquet"
	TripDayFile  = "station_day.parquet"

	TemporalFile         = "temporal_daily.parquet"
	AccessibilityFile    = "station_accessibility.parquet"
	AccessibilityGeoJSON = "station_accessibility.geojson"
	GTFSStationHourFile  = "gtfs_station_hour.parquet"
	StationDayCovarsFile = "station_day_covariates.parquet"
	ModelMatrixHourFile  = "model_matrix_hour.parquet"
	ModelMatrixDayFile   = "model_matrix_day.parquet"
)

func (p Paths) WeatherPath() string         { return filepath.Join(p.Interim, WeatherFile) }
func (p Paths) MobilityPath() string        { return filepath.Join(p.Interim, MobilityFile) }
func (p Paths) StationsPath() string        { return filepath.Join(p.Interim, StationsFile) }
func (p Paths) BoundariesPath() string      { return filepath.Join(p.Interim, BoundariesFile) }
func (p Paths) GTFSDBPath() string          { return filepath.Join(p.Interim, GTFSDBFile) }
func (p Paths) TripHourPath() string        { return filepath.Join(p.Processed, TripHourFile) }
func (p Paths) TripDayPath() string         { return filepath.Join(p.Processed, TripDayFile) }
func (p Paths) TemporalPath() string        { return filepath.Join(p.Processed, TemporalFile) }
func (p Paths) AccessibilityPath() string   { return filepath.Join(p.Processed, AccessibilityFile) }
func (p Paths) AccessibilityGeoPath() string {
	return filepath.Join(p.Processed, AccessibilityGeoJSON)
}
func (p Paths) GTFSStationHourPath() string { return filepath.Join(p.Processed, GTFSStationHourFile) }
func (p Paths) StationDayCovarsPath() string {
	return filepath.Join(p.Processed, StationDayCovarsFile)
}
func (p Paths) ModelMatrixHourPath() string { return filepath.Join(p.Processed, ModelMatrixHourFile) }
func (p Paths) ModelMatrixDayPath() string  { return filepath.Join(p.Processed, ModelMatrixDayFile) }
