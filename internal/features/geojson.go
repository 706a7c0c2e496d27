package features

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"bikeshare.trentomobility.org/internal/models"
)

// WriteAccessibilityGeoJSON persists the accessibility index as a WGS84
// feature collection for map tooling.
func WriteAccessibilityGeoJSON(path string, rows []models.AccessibilityRow) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		feat := geojson.NewFeature(orb.Point{r.Lon, r.Lat})
		feat.Properties = geojson.Properties{
			"station_id":          r.StationID,
			"name":                r.Name,
			"capacity":            r.Capacity,
			"stop_id":             r.NearestStopID,
			"stop_name":           r.NearestStopName,
			"dist_to_stop_m":      r.DistToStopM,
			"stops_300m":          r.Stops300m,
			"routes_300m":         r.Routes300m,
			"idx_intermodal_300m": r.Idx300m,
			"stops_500m":          r.Stops500m,
			"routes_500m":         r.Routes500m,
			"idx_intermodal_500m": r.Idx500m,
		}
		fc.Append(feat)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding accessibility GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing accessibility GeoJSON %s: %w", path, err)
	}
	return nil
}
