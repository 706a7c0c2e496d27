package clean

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"

	"bikeshare.trentomobility.org/internal/config"
	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/pipeline"
)

// mobilityRenames maps the report's baseline-change columns to the short
// names used downstream.
var mobilityRenames = [][2]string{
	{"retail_and_recreation_percent_change_from_baseline", "mob_retail"},
	{"grocery_and_pharmacy_percent_change_from_baseline", "mob_grocery"},
	{"parks_percent_change_from_baseline", "mob_parks"},
	{"transit_stations_percent_change_from_baseline", "mob_transit"},
	{"workplaces_percent_change_from_baseline", "mob_work"},
	{"residential_percent_change_from_baseline", "mob_residential"},
}

// CleanMobility extracts the study region's rows from a Google Mobility
// region report and renames the baseline-change columns.
func CleanMobility(src string, region config.RegionConfig) ([]models.MobilityDay, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("error opening mobility report %s: %w", src, err)
	}
	defer f.Close() // nolint:errcheck

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DefaultType(series.String))
	if df.Err != nil {
		return nil, fmt.Errorf("error reading mobility report %s: %w", src, df.Err)
	}

	have := make(map[string]bool, len(df.Names()))
	for _, name := range df.Names() {
		have[name] = true
	}
	var missing []string
	for _, col := range []string{"date", "sub_region_1", "sub_region_2"} {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	for _, r := range mobilityRenames {
		if !have[r[0]] {
			missing = append(missing, r[0])
		}
	}
	if len(missing) > 0 {
		return nil, &pipeline.SchemaError{Source: src, Missing: missing, Found: df.Names()}
	}

	df = df.
		Filter(dataframe.F{Colname: "sub_region_1", Comparator: series.Eq, Comparando: region.Name}).
		Filter(dataframe.F{Colname: "sub_region_2", Comparator: series.Eq, Comparando: region.SubRegion})
	if df.Err != nil {
		return nil, fmt.Errorf("error filtering mobility report %s: %w", src, df.Err)
	}
	if df.Nrow() == 0 {
		return nil, &pipeline.EmptyResultError{
			Source: src,
			Hint: fmt.Sprintf("no rows match sub_region_1=%q sub_region_2=%q; check the region filter against the source file",
				region.Name, region.SubRegion),
		}
	}

	records := df.Records()
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}

	days := make([]models.MobilityDay, 0, len(records)-1)
	for _, rec := range records[1:] {
		date, err := time.Parse(models.DateLayout, rec[idx["date"]])
		if err != nil {
			return nil, fmt.Errorf("mobility report %s: unparseable date %q: %w", src, rec[idx["date"]], err)
		}
		day := models.MobilityDay{
			Date:        date,
			Retail:      parseFloat(rec[idx["retail_and_recreation_percent_change_from_baseline"]]),
			Grocery:     parseFloat(rec[idx["grocery_and_pharmacy_percent_change_from_baseline"]]),
			Parks:       parseFloat(rec[idx["parks_percent_change_from_baseline"]]),
			Transit:     parseFloat(rec[idx["transit_stations_percent_change_from_baseline"]]),
			Work:        parseFloat(rec[idx["workplaces_percent_change_from_baseline"]]),
			Residential: parseFloat(rec[idx["residential_percent_change_from_baseline"]]),
		}
		if i, ok := idx["place_id"]; ok {
			day.PlaceID = rec[i]
		}
		if i, ok := idx["iso_3166_2_code"]; ok {
			day.ISOCode = rec[i]
		}
		days = append(days, day)
	}
	return days, nil
}

// parseFloat reads a numeric cell; gaps become NaN rather than zero so they
// stay distinguishable from a true 0.
func parseFloat(s string) float64 {
	if s == "" || s == "NaN" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

type mobilityRow struct {
	Date        string  `parquet:"date"`
	Retail      float64 `parquet:"mob_retail"`
	Grocery     float64 `parquet:"mob_grocery"`
	Parks       float64 `parquet:"mob_parks"`
	Transit     float64 `parquet:"mob_transit"`
	Work        float64 `parquet:"mob_work"`
	Residential float64 `parquet:"mob_residential"`
	PlaceID     string  `parquet:"place_id"`
	ISOCode     string  `parquet:"iso_3166_2_code"`
}

// WriteMobilityTable persists cleaned mobility rows as the interim table.
func WriteMobilityTable(path string, days []models.MobilityDay) error {
	rows := make([]mobilityRow, len(days))
	for i, d := range days {
		rows[i] = mobilityRow{
			Date:        d.Date.Format(models.DateLayout),
			Retail:      d.Retail,
			Grocery:     d.Grocery,
			Parks:       d.Parks,
			Transit:     d.Transit,
			Work:        d.Work,
			Residential: d.Residential,
			PlaceID:     d.PlaceID,
			ISOCode:     d.ISOCode,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("error writing mobility table %s: %w", path, err)
	}
	return nil
}

// ReadMobilityTable loads the interim mobility table back into typed rows.
func ReadMobilityTable(path string) ([]models.MobilityDay, error) {
	rows, err := parquet.ReadFile[mobilityRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading mobility table %s: %w", path, err)
	}
	days := make([]models.MobilityDay, len(rows))
	for i, r := range rows {
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("mobility table %s: bad date %q: %w", path, r.Date, err)
		}
		days[i] = models.MobilityDay{
			Date:        date,
			Retail:      r.Retail,
			Grocery:     r.Grocery,
			Parks:       r.Parks,
			Transit:     r.Transit,
			Work:        r.Work,
			Residential: r.Residential,
			PlaceID:     r.PlaceID,
			ISOCode:     r.ISOCode,
		}
	}
	return days, nil
}
