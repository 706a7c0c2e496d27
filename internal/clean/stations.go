package clean

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"bikeshare.trentomobility.org/internal/geo"
	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/pipeline"
)

var stationColumns = []string{"WKT", "id", "fumetto", "desc", "cicloposteggi", "tipologia"}

// CleanStations reads the semicolon-separated station inventory, reprojects
// the UTM 32N geometries to WGS84, normalizes the labels and drops stations
// sharing identical coordinates.
func CleanStations(src string) ([]models.Station, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("error opening station inventory %s: %w", src, err)
	}
	defer f.Close() // nolint:errcheck

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.WithDelimiter(';'),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("error reading station inventory %s: %w", src, df.Err)
	}

	have := make(map[string]bool, len(df.Names()))
	for _, name := range df.Names() {
		have[name] = true
	}
	var missing []string
	for _, col := range stationColumns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &pipeline.SchemaError{Source: src, Missing: missing, Found: df.Names()}
	}

	records := df.Records()
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}

	var stations []models.Station
	seen := make(map[string]bool)
	for _, rec := range records[1:] {
		utm, err := wkt.UnmarshalPoint(rec[idx["WKT"]])
		if err != nil {
			return nil, fmt.Errorf("station inventory %s: bad WKT %q: %w", src, rec[idx["WKT"]], err)
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[idx["id"]]))
		if err != nil {
			return nil, fmt.Errorf("station inventory %s: bad station id %q: %w", src, rec[idx["id"]], err)
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(rec[idx["cicloposteggi"]]))
		if err != nil {
			capacity = 0
		}

		point := geo.UnprojectUTM(utm, geo.TrentoZone)
		key := fmt.Sprintf("%.6f,%.6f", point.Lat(), point.Lon())
		if seen[key] {
			continue
		}
		seen[key] = true

		stations = append(stations, models.Station{
			ID:       id,
			Name:     models.CleanStationName(rec[idx["fumetto"]]),
			Desc:     strings.TrimSpace(rec[idx["desc"]]),
			Capacity: capacity,
			Type:     strings.TrimSpace(rec[idx["tipologia"]]),
			Zone:     "unknown",
			Point:    point,
		})
	}
	if len(stations) == 0 {
		return nil, &pipeline.EmptyResultError{Source: src, Hint: "station inventory parsed to zero rows"}
	}
	return stations, nil
}

// WriteStationsGeoJSON persists the cleaned stations as a WGS84 feature
// collection.
func WriteStationsGeoJSON(path string, stations []models.Station) error {
	fc := geojson.NewFeatureCollection()
	for _, st := range stations {
		feat := geojson.NewFeature(st.Point)
		feat.Properties = geojson.Properties{
			"station_id": st.ID,
			"name":       st.Name,
			"desc":       st.Desc,
			"capacity":   st.Capacity,
			"type":       st.Type,
			"zone":       st.Zone,
			"lat":        st.Point.Lat(),
			"lon":        st.Point.Lon(),
		}
		fc.Append(feat)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding stations GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing stations GeoJSON %s: %w", path, err)
	}
	return nil
}

// ReadStationsGeoJSON loads a cleaned station feature collection.
func ReadStationsGeoJSON(path string) ([]models.Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading stations GeoJSON %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing stations GeoJSON %s: %w", path, err)
	}

	stations := make([]models.Station, 0, len(fc.Features))
	for _, feat := range fc.Features {
		point, ok := feat.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("stations GeoJSON %s: non-point geometry", path)
		}
		stations = append(stations, models.Station{
			ID:       propInt(feat.Properties, "station_id"),
			Name:     propString(feat.Properties, "name"),
			Desc:     propString(feat.Properties, "desc"),
			Capacity: propInt(feat.Properties, "capacity"),
			Type:     propString(feat.Properties, "type"),
			Zone:     propString(feat.Properties, "zone"),
			Point:    point,
		})
	}
	return stations, nil
}

func propString(p geojson.Properties, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func propInt(p geojson.Properties, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
