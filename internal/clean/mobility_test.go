package clean

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/config"
	"bikeshare.trentomobility.org/internal/pipeline"
)

const mobilityHeader = "country_region,sub_region_1,sub_region_2,place_id,iso_3166_2_code,date," +
	"retail_and_recreation_percent_change_from_baseline,grocery_and_pharmacy_percent_change_from_baseline," +
	"parks_percent_change_from_baseline,transit_stations_percent_change_from_baseline," +
	"workplaces_percent_change_from_baseline,residential_percent_change_from_baseline\n"

func trentoRegion() config.RegionConfig {
	return config.RegionConfig{
		Name:      "Trentino-South Tyrol",
		SubRegion: "Autonomous Province of Trento",
	}
}

func TestCleanMobilityFiltersAndRenames(t *testing.T) {
	src := writeTempFile(t, "gmr.csv", mobilityHeader+
		"Italy,Trentino-South Tyrol,Autonomous Province of Trento,pid,IT-32,2022-03-01,-12,3,,--,-25,8\n"+
		"Italy,Trentino-South Tyrol,Autonomous Province of Bolzano,pid2,IT-32,2022-03-01,1,2,3,4,5,6\n"+
		"Italy,Lombardy,,pid3,IT-25,2022-03-01,9,9,9,9,9,9\n")

	days, err := CleanMobility(src, trentoRegion())
	require.NoError(t, err)
	require.Len(t, days, 1)

	d := days[0]
	assert.Equal(t, "2022-03-01", d.Date.Format("2006-01-02"))
	assert.InDelta(t, -12, d.Retail, 1e-9)
	assert.InDelta(t, -25, d.Work, 1e-9)
	assert.Equal(t, "pid", d.PlaceID)
	// blank and malformed cells stay NaN, never 0
	assert.True(t, math.IsNaN(d.Parks))
	assert.True(t, math.IsNaN(d.Transit))
}

func TestCleanMobilityEmptyFilter(t *testing.T) {
	src := writeTempFile(t, "gmr.csv", mobilityHeader+
		"Italy,Lombardy,,pid,IT-25,2022-03-01,1,2,3,4,5,6\n")

	_, err := CleanMobility(src, trentoRegion())
	var emptyErr *pipeline.EmptyResultError
	require.ErrorAs(t, err, &emptyErr)
	assert.Contains(t, emptyErr.Error(), "check the region filter")
}

func TestCleanMobilityMissingColumns(t *testing.T) {
	src := writeTempFile(t, "gmr.csv",
		"date,sub_region_1,sub_region_2\n2022-03-01,Trentino-South Tyrol,Autonomous Province of Trento\n")

	_, err := CleanMobility(src, trentoRegion())
	var schemaErr *pipeline.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Missing, "transit_stations_percent_change_from_baseline")
}

func TestMobilityTableRoundTrip(t *testing.T) {
	src := writeTempFile(t, "gmr.csv", mobilityHeader+
		"Italy,Trentino-South Tyrol,Autonomous Province of Trento,pid,IT-32,2022-03-01,-12,3,7,-18,-25,8\n")
	days, err := CleanMobility(src, trentoRegion())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mobility_trento.parquet")
	require.NoError(t, WriteMobilityTable(path, days))

	back, err := ReadMobilityTable(path)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.InDelta(t, days[0].Transit, back[0].Transit, 1e-9)
	assert.Equal(t, days[0].Date, back[0].Date)
}
