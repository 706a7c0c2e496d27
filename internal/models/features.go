package models

// DateLayout is the date key format used in every persisted feature table.
const DateLayout = "2006-01-02"

// RadiusMetrics holds the proximity counts for one (station, radius) pair.
// Counts are always concrete integers: a station with nothing nearby gets
// zeros, never nulls.
type RadiusMetrics struct {
	Stops  int
	Routes int
	Index  float64
}

// StationAccessibility is the derived proximity record for one station.
// Recomputed from scratch whenever the radius set or the stop set changes.
type StationAccessibility struct {
	StationID       int
	Name            string
	Capacity        int
	Lat             float64
	Lon             float64
	NearestStopID   string
	NearestStopName string
	NearestStopDist float64
	ByRadius        map[int]RadiusMetrics
}

// AccessibilityRow is the persisted (Parquet/CSV) projection of
// StationAccessibility at the study's canonical 300 m / 500 m radii.
type AccessibilityRow struct {
	StationID       int64   `parquet:"station_id"`
	Name            string  `parquet:"name"`
	Capacity        int64   `parquet:"capacity"`
	Lat             float64 `parquet:"lat"`
	Lon             float64 `parquet:"lon"`
	NearestStopID   string  `parquet:"stop_id"`
	NearestStopName string  `parquet:"stop_name"`
	DistToStopM     float64 `parquet:"dist_to_stop_m"`
	Stops300m       int64   `parquet:"stops_300m"`
	Routes300m      int64   `parquet:"routes_300m"`
	Idx300m         float64 `parquet:"idx_intermodal_300m"`
	Stops500m       int64   `parquet:"stops_500m"`
	Routes500m      int64   `parquet:"routes_500m"`
	Idx500m         float64 `parquet:"idx_intermodal_500m"`
}

// StationHourRow is one (station, date, hour) row of nearby GTFS departures.
// Hour runs 0..47: values above 23 are overnight service attributed to the
// prior service day, per the GTFS convention.
type StationHourRow struct {
	StationID int64  `parquet:"station_id"`
	Date      string `parquet:"date"`
	Hour      int32  `parquet:"hour"`
	DepUrb    int64  `parquet:"dep_hour_urb_300m"`
	DepExt    int64  `parquet:"dep_hour_ext_300m"`
	DepTotal  int64  `parquet:"dep_hour_total_300m"`
}

// StationDayRow is the daily feature row: summed departures plus mobility,
// weather and calendar covariates.
type StationDayRow struct {
	StationID  int64   `parquet:"station_id"`
	Date       string  `parquet:"date"`
	DepUrbDay  int64   `parquet:"dep_urb_day"`
	DepExtDay  int64   `parquet:"dep_ext_day"`
	DepTotDay  int64   `parquet:"dep_tot_day"`
	MobTransit float64 `parquet:"mob_transit"`
	MobWork    float64 `parquet:"mob_work"`
	MobRetail  float64 `parquet:"mob_retail"`
	MobParks   float64 `parquet:"mob_parks"`
	TempMax    float64 `parquet:"temp_max"`
	TempMin    float64 `parquet:"temp_min"`
	PrecipMM   float64 `parquet:"precip_mm"`
	Capacity   int64   `parquet:"capacity"`
	Zone       string  `parquet:"zone"`
	Dow        int32   `parquet:"dow"`
	IsWeekend  int32   `parquet:"is_weekend"`
	IsHoliday  int32   `parquet:"is_holiday"`
}

// TripHourRow is the hourly trip outcome inferred from status snapshots.
type TripHourRow struct {
	StationID string `parquet:"station_id"`
	Date      string `parquet:"date"`
	Hour      int32  `parquet:"hour"`
	Trips     int64  `parquet:"trips_hour"`
}

// TripDayRow is the daily aggregation of TripHourRow.
type TripDayRow struct {
	StationID string `parquet:"station_id"`
	Date      string `parquet:"date"`
	Trips     int64  `parquet:"trips_day"`
}

// ModelMatrixHourRow is one observation of the hourly model matrix.
type ModelMatrixHourRow struct {
	StationID int64   `parquet:"station_id"`
	Date      string  `parquet:"date"`
	Hour      int32   `parquet:"hour"`
	Trips     int64   `parquet:"trips"`
	GtfsDep   int64   `parquet:"gtfs_dep_300m"`
	Zone      string  `parquet:"zone"`
	TempMax   float64 `parquet:"temp_max"`
	PrecipMM  float64 `parquet:"precip_mm"`
	MobWork   float64 `parquet:"mob_work"`
	MobTran   float64 `parquet:"mob_transit"`
	Dow       int32   `parquet:"dow"`
	IsWeekend int32   `parquet:"is_weekend"`
	Month     int32   `parquet:"month"`
}

// ModelMatrixDayRow is one observation of the daily model matrix.
type ModelMatrixDayRow struct {
	StationID int64   `parquet:"station_id"`
	Date      string  `parquet:"date"`
	Trips     int64   `parquet:"trips"`
	GtfsDep   int64   `parquet:"gtfs_dep_300m_day"`
	Zone      string  `parquet:"zone"`
	TempMax   float64 `parquet:"temp_max"`
	PrecipMM  float64 `parquet:"precip_mm"`
	MobWork   float64 `parquet:"mob_work"`
	MobTran   float64 `parquet:"mob_transit"`
	Dow       int32   `parquet:"dow"`
	IsWeekend int32   `parquet:"is_weekend"`
	Week      int32   `parquet:"week"`
	Month     int32   `parquet:"month"`
}
