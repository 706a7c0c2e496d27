// Package clean normalizes the raw study inputs into typed interim tables:
// weather, mobility, stations, administrative boundaries and live-status
// snapshots. Every cleaner reads one source, validates its schema and writes
// one interim file; nothing here mutates upstream data.
package clean

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/pipeline"
)

// era5Response is the shape of the Open-Meteo ERA5 archive endpoint reply.
type era5Response struct {
	Daily struct {
		Time             []string  `json:"time"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// CleanWeather parses a daily ERA5 JSON dump into one row per date.
func CleanWeather(src string) ([]models.WeatherDay, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("error reading weather file %s: %w", src, err)
	}

	var resp era5Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("error parsing weather JSON %s: %w", src, err)
	}

	d := resp.Daily
	if len(d.Time) == 0 {
		return nil, &pipeline.EmptyResultError{
			Source: src,
			Hint:   "expected a 'daily' block with a 'time' array",
		}
	}
	if len(d.TemperatureMax) != len(d.Time) || len(d.PrecipitationSum) != len(d.Time) {
		return nil, fmt.Errorf("weather file %s: daily arrays have mismatched lengths", src)
	}

	days := make([]models.WeatherDay, 0, len(d.Time))
	for i, ts := range d.Time {
		date, err := time.Parse(models.DateLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("weather file %s: unparseable date %q: %w", src, ts, err)
		}
		day := models.WeatherDay{
			Date:     date,
			TempMax:  d.TemperatureMax[i],
			PrecipMM: d.PrecipitationSum[i],
		}
		if i < len(d.TemperatureMin) {
			day.TempMin = d.TemperatureMin[i]
		}
		days = append(days, day)
	}
	return days, nil
}

type weatherRow struct {
	Date     string  `parquet:"date"`
	TempMax  float64 `parquet:"temp_max"`
	TempMin  float64 `parquet:"temp_min"`
	PrecipMM float64 `parquet:"precip_mm"`
}

// WriteWeatherTable persists cleaned weather rows as the interim table.
func WriteWeatherTable(path string, days []models.WeatherDay) error {
	rows := make([]weatherRow, len(days))
	for i, d := range days {
		rows[i] = weatherRow{
			Date:     d.Date.Format(models.DateLayout),
			TempMax:  d.TempMax,
			TempMin:  d.TempMin,
			PrecipMM: d.PrecipMM,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing weather table %s: %w", path, err)
	}
	return nil
}

// ReadWeatherTable loads the interim weather table back into typed rows.
func ReadWeatherTable(path string) ([]models.WeatherDay, error) {
	rows, err := parquet.ReadFile[weatherRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading weather table %s: %w", path, err)
	}
	days := make([]models.WeatherDay, len(rows))
	for i, r := range rows {
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("weather table %s: bad date %q: %w", path, r.Date, err)
		}
		days[i] = models.WeatherDay{Date: date, TempMax: r.TempMax, TempMin: r.TempMin, PrecipMM: r.PrecipMM}
	}
	return days, nil
}
