package stats

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/models"
)

// hourlyMatrix simulates a morning/evening-peaked hourly demand profile over
// three stations in two zones.
func hourlyMatrix(days int, seed int64) []models.ModelMatrixHourRow {
	r := rand.New(rand.NewSource(seed))
	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	zones := map[int64]string{1: "centro", 2: "centro", 3: "collina"}
	var rows []models.ModelMatrixHourRow
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		tmax := 18 + 12*r.Float64()
		for _, station := range []int64{1, 2, 3} {
			for h := 0; h < 24; h++ {
				peak := math.Exp(-math.Pow(float64(h)-8.5, 2)/8) +
					0.8*math.Exp(-math.Pow(float64(h)-17.5, 2)/10)
				mu := 0.3 + 4*peak + 0.05*tmax
				rows = append(rows, models.ModelMatrixHourRow{
					StationID: station,
					Date:      date.Format(models.DateLayout),
					Hour:      int32(h),
					Trips:     int64(poissonDraw(r, mu)),
					Zone:      zones[station],
					TempMax:   tmax,
					PrecipMM:  2 * r.Float64(),
					Dow:       int32((int(date.Weekday()) + 6) % 7),
				})
			}
		}
	}
	return rows
}

func TestFitHourModels(t *testing.T) {
	rows := hourlyMatrix(30, 1)

	m, err := FitHourModels(rows, CountModelOptions{HourSplineDF: 6, TmaxSplineDF: 4})
	require.NoError(t, err)

	assert.Equal(t, len(rows), m.Poisson.N)
	assert.Equal(t, 3, m.Poisson.NClusters)
	assert.Equal(t, Poisson, m.Poisson.Family)
	assert.Equal(t, NegativeBinomial, m.NegBin.Family)
	assert.Greater(t, m.NegBin.Dispersion, 0.0)

	curve, err := m.PartialHourCurve(m.Poisson)
	require.NoError(t, err)
	require.Len(t, curve, 24)

	peakAM := curve[8]
	night := curve[2]
	assert.Greater(t, peakAM.Fit, night.Fit, "fitted profile must show the morning peak")
	for _, pt := range curve {
		assert.LessOrEqual(t, pt.Lo, pt.Fit)
		assert.GreaterOrEqual(t, pt.Hi, pt.Fit)
		assert.Greater(t, pt.Lo, 0.0, "response-scale band stays positive")
	}
}

func TestFitHourModelsDropsMissingWeather(t *testing.T) {
	rows := hourlyMatrix(20, 2)
	for i := range rows {
		if rows[i].Date == "2022-06-05" {
			rows[i].TempMax = math.NaN()
		}
	}

	m, err := FitHourModels(rows, CountModelOptions{HourSplineDF: 6, TmaxSplineDF: 4})
	require.NoError(t, err)
	assert.Equal(t, (20-1)*3*24, m.Poisson.N)
}

func TestFitHourModelsEmptyMatrix(t *testing.T) {
	_, err := FitHourModels(nil, CountModelOptions{HourSplineDF: 6, TmaxSplineDF: 4})
	assert.ErrorContains(t, err, "empty")
}

func TestFitDayModels(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	zones := map[int64]string{1: "centro", 2: "collina"}

	var rows []models.ModelMatrixDayRow
	for d := 0; d < 90; d++ {
		date := start.AddDate(0, 0, d)
		tmax := 15 + 15*r.Float64()
		for _, station := range []int64{1, 2} {
			mu := math.Exp(1.5 + 0.03*tmax)
			rows = append(rows, models.ModelMatrixDayRow{
				StationID: station,
				Date:      date.Format(models.DateLayout),
				Trips:     int64(poissonDraw(r, mu)),
				Zone:      zones[station],
				TempMax:   tmax,
				PrecipMM:  3 * r.Float64(),
				MobWork:   -20 + 3*r.NormFloat64(),
				MobTran:   -15 + 3*r.NormFloat64(),
				Dow:       int32((int(date.Weekday()) + 6) % 7),
			})
		}
	}

	m, err := FitDayModels(rows, CountModelOptions{TmaxSplineDF: 4})
	require.NoError(t, err)
	assert.Equal(t, len(rows), m.Poisson.N)
	assert.Equal(t, 2, m.Poisson.NClusters)

	curve, err := m.PartialTmaxCurve(m.Poisson, 25)
	require.NoError(t, err)
	require.Len(t, curve, 25)
	assert.Greater(t, curve[len(curve)-1].Fit, curve[0].Fit,
		"warmer days must fit more trips under a positive temperature effect")
}
