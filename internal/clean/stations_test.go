package clean

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/pipeline"
)

const stationsHeader = "WKT;id;fumetto;desc;cicloposteggi;tipologia\n"

func TestCleanStations(t *testing.T) {
	src := writeTempFile(t, "stazioni.csv", stationsHeader+
		"POINT (663132.53 5104569.75);1;STAZIONE  FF.SS.;Piazzale stazione;24;attiva\n"+
		"POINT (663500.00 5103800.00);2;UNIVERSITA' MESIANO;Polo universitario;12;attiva\n")

	stations, err := CleanStations(src)
	require.NoError(t, err)
	require.Len(t, stations, 2)

	assert.Equal(t, 1, stations[0].ID)
	assert.Equal(t, "STAZIONE FS", stations[0].Name)
	assert.Equal(t, 24, stations[0].Capacity)
	assert.Equal(t, "attiva", stations[0].Type)
	// reprojected into the Trento lon/lat neighbourhood
	assert.InDelta(t, 11.1, stations[0].Point.Lon(), 0.1)
	assert.InDelta(t, 46.1, stations[0].Point.Lat(), 0.1)

	assert.Equal(t, "Università Mesiano", stations[1].Name)
}

func TestCleanStationsDedupesByCoordinates(t *testing.T) {
	src := writeTempFile(t, "stazioni.csv", stationsHeader+
		"POINT (663132.53 5104569.75);1;A;first;10;attiva\n"+
		"POINT (663132.53 5104569.75);2;B;duplicate;10;attiva\n")

	stations, err := CleanStations(src)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, 1, stations[0].ID)
}

func TestCleanStationsSchemaError(t *testing.T) {
	src := writeTempFile(t, "stazioni.csv", "WKT;id;name\nPOINT (1 2);1;x\n")

	_, err := CleanStations(src)
	var schemaErr *pipeline.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Missing, "fumetto")
	assert.Contains(t, schemaErr.Missing, "cicloposteggi")
}

func TestStationsGeoJSONRoundTrip(t *testing.T) {
	src := writeTempFile(t, "stazioni.csv", stationsHeader+
		"POINT (663132.53 5104569.75);7;Piazza Dante;capolinea;16;attiva\n")
	stations, err := CleanStations(src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "stations_clean.geojson")
	require.NoError(t, WriteStationsGeoJSON(path, stations))

	back, err := ReadStationsGeoJSON(path)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, stations[0].ID, back[0].ID)
	assert.Equal(t, stations[0].Name, back[0].Name)
	assert.Equal(t, stations[0].Capacity, back[0].Capacity)
	assert.InDelta(t, stations[0].Point.Lon(), back[0].Point.Lon(), 1e-9)
	assert.InDelta(t, stations[0].Point.Lat(), back[0].Point.Lat(), 1e-9)
}
