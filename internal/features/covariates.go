package features

import (
	"fmt"
	"math"
	"time"

	"github.com/parquet-go/parquet-go"

	"bikeshare.trentomobility.org/internal/models"
)

// easterSunday computes the Gregorian Easter date (anonymous Gauss algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsItalianHoliday reports whether the date is a national public holiday.
func IsItalianHoliday(d time.Time) bool {
	switch {
	case d.Month() == time.January && d.Day() == 1: // Capodanno
		return true
	case d.Month() == time.January && d.Day() == 6: // Epifania
		return true
	case d.Month() == time.April && d.Day() == 25: // Liberazione
		return true
	case d.Month() == time.May && d.Day() == 1: // Festa del Lavoro
		return true
	case d.Month() == time.June && d.Day() == 2: // Festa della Repubblica
		return true
	case d.Month() == time.August && d.Day() == 15: // Ferragosto
		return true
	case d.Month() == time.November && d.Day() == 1: // Ognissanti
		return true
	case d.Month() == time.December && d.Day() == 8: // Immacolata
		return true
	case d.Month() == time.December && d.Day() == 25: // Natale
		return true
	case d.Month() == time.December && d.Day() == 26: // Santo Stefano
		return true
	}
	easter := easterSunday(d.Year())
	monday := easter.AddDate(0, 0, 1)
	return d.Month() == easter.Month() && d.Day() == easter.Day() ||
		d.Month() == monday.Month() && d.Day() == monday.Day()
}

// BuildTemporal left-joins daily weather onto the mobility series and adds
// calendar flags and the simple weather transforms used by the models. One
// row per mobility date; weather gaps stay NaN.
func BuildTemporal(mobility []models.MobilityDay, weather []models.WeatherDay) []models.TemporalDay {
	byDate := make(map[string]models.WeatherDay, len(weather))
	for _, w := range weather {
		byDate[w.Date.Format(models.DateLayout)] = w
	}

	rows := make([]models.TemporalDay, 0, len(mobility))
	for _, m := range mobility {
		row := models.TemporalDay{
			Date:       m.Date,
			MobRetail:  m.Retail,
			MobGrocery: m.Grocery,
			MobParks:   m.Parks,
			MobTransit: m.Transit,
			MobWork:    m.Work,
			TempMax:    math.NaN(),
			TempMin:    math.NaN(),
			PrecipMM:   math.NaN(),
			TempMaxSq:  math.NaN(),
			Dow:        models.Dow(m.Date),
			IsWeekend:  models.Dow(m.Date) >= 5,
			IsHoliday:  IsItalianHoliday(m.Date),
		}
		if w, ok := byDate[m.Date.Format(models.DateLayout)]; ok {
			row.TempMax = w.TempMax
			row.TempMin = w.TempMin
			row.PrecipMM = w.PrecipMM
			row.TempMaxSq = w.TempMax * w.TempMax
			if w.PrecipMM > 0 {
				row.RainBinary = 1
			}
			if w.PrecipMM >= 10 {
				row.RainHeavy = 1
			}
		}
		rows = append(rows, row)
	}
	return rows
}

type temporalRow struct {
	Date       string  `parquet:"date"`
	MobRetail  float64 `parquet:"mob_retail"`
	MobGrocery float64 `parquet:"mob_grocery"`
	MobParks   float64 `parquet:"mob_parks"`
	MobTransit float64 `parquet:"mob_transit"`
	MobWork    float64 `parquet:"mob_work"`
	TempMax    float64 `parquet:"temp_max"`
	TempMin    float64 `parquet:"temp_min"`
	PrecipMM   float64 `parquet:"precip_mm"`
	TempMaxSq  float64 `parquet:"temp_max_sq"`
	RainBinary int32   `parquet:"rain_binary"`
	RainHeavy  int32   `parquet:"rain_heavy"`
	Dow        int32   `parquet:"dow"`
	IsWeekend  int32   `parquet:"is_weekend"`
	IsHoliday  int32   `parquet:"is_holiday"`
}

func boolFlag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// WriteTemporalTable persists the per-date covariate rows.
func WriteTemporalTable(path string, rows []models.TemporalDay) error {
	out := make([]temporalRow, len(rows))
	for i, r := range rows {
		out[i] = temporalRow{
			Date:       r.Date.Format(models.DateLayout),
			MobRetail:  r.MobRetail,
			MobGrocery: r.MobGrocery,
			MobParks:   r.MobParks,
			MobTransit: r.MobTransit,
			MobWork:    r.MobWork,
			TempMax:    r.TempMax,
			TempMin:    r.TempMin,
			PrecipMM:   r.PrecipMM,
			TempMaxSq:  r.TempMaxSq,
			RainBinary: int32(r.RainBinary),
			RainHeavy:  int32(r.RainHeavy),
			Dow:        int32(r.Dow),
			IsWeekend:  boolFlag(r.IsWeekend),
			IsHoliday:  boolFlag(r.IsHoliday),
		}
	}
	if err := parquet.WriteFile(path, out); err != nil {
		return fmt.Errorf("error writing temporal table %s: %w", path, err)
	}
	return nil
}

// ReadTemporalTable loads the per-date covariate rows.
func ReadTemporalTable(path string) ([]models.TemporalDay, error) {
	raw, err := parquet.ReadFile[temporalRow](path)
	if err != nil {
		return nil, fmt.Errorf("error reading temporal table %s: %w", path, err)
	}
	rows := make([]models.TemporalDay, len(raw))
	for i, r := range raw {
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("temporal table %s: bad date %q: %w", path, r.Date, err)
		}
		rows[i] = models.TemporalDay{
			Date:       date,
			MobRetail:  r.MobRetail,
			MobGrocery: r.MobGrocery,
			MobParks:   r.MobParks,
			MobTransit: r.MobTransit,
			MobWork:    r.MobWork,
			TempMax:    r.TempMax,
			TempMin:    r.TempMin,
			PrecipMM:   r.PrecipMM,
			TempMaxSq:  r.TempMaxSq,
			RainBinary: int(r.RainBinary),
			RainHeavy:  int(r.RainHeavy),
			Dow:        int(r.Dow),
			IsWeekend:  r.IsWeekend == 1,
			IsHoliday:  r.IsHoliday == 1,
		}
	}
	return rows, nil
}
