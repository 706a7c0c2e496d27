package clean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/pipeline"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCleanWeather(t *testing.T) {
	src := writeTempFile(t, "era5.json", `{
		"daily": {
			"time": ["2022-01-01", "2022-01-02"],
			"temperature_2m_max": [5.1, 7.3],
			"temperature_2m_min": [-2.0, 0.4],
			"precipitation_sum": [0.0, 12.5]
		}
	}`)

	days, err := CleanWeather(src)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2022-01-01", days[0].Date.Format("2006-01-02"))
	assert.InDelta(t, 5.1, days[0].TempMax, 1e-9)
	assert.InDelta(t, -2.0, days[0].TempMin, 1e-9)
	assert.InDelta(t, 12.5, days[1].PrecipMM, 1e-9)
}

func TestCleanWeatherEmptyDaily(t *testing.T) {
	src := writeTempFile(t, "era5.json", `{"daily": {"time": []}}`)

	_, err := CleanWeather(src)
	var emptyErr *pipeline.EmptyResultError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestCleanWeatherMismatchedArrays(t *testing.T) {
	src := writeTempFile(t, "era5.json", `{
		"daily": {
			"time": ["2022-01-01", "2022-01-02"],
			"temperature_2m_max": [5.1],
			"precipitation_sum": [0.0, 1.0]
		}
	}`)

	_, err := CleanWeather(src)
	assert.ErrorContains(t, err, "mismatched lengths")
}

func TestWeatherTableRoundTrip(t *testing.T) {
	src := writeTempFile(t, "era5.json", `{
		"daily": {
			"time": ["2022-06-01"],
			"temperature_2m_max": [28.4],
			"temperature_2m_min": [14.0],
			"precipitation_sum": [3.2]
		}
	}`)
	days, err := CleanWeather(src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "meteo_daily.parquet")
	require.NoError(t, WriteWeatherTable(path, days))

	back, err := ReadWeatherTable(path)
	require.NoError(t, err)
	assert.Equal(t, days, back)
}
