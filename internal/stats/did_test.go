package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/models"
)

// didPanel builds a balanced station-day panel around the event date with a
// known treatment effect baked in.
func didPanel(event time.Time, days int, effect float64, seed int64) []models.ModelMatrixDayRow {
	r := rand.New(rand.NewSource(seed))
	stations := []struct {
		id   int64
		zone string
		base float64
	}{
		{1, "Centro storico", 20},
		{2, "centro-sud", 18},
		{3, "collina est", 15},
		{4, "collina ovest", 14},
		{5, "oltrefersina", 12},
		{6, "gardolo", 10},
	}

	var rows []models.ModelMatrixDayRow
	for d := -days; d < days; d++ {
		date := event.AddDate(0, 0, d)
		post := d >= 0
		for _, s := range stations {
			treated := s.id <= 2
			y := s.base
			if post {
				y += 2
			}
			if treated && post {
				y += effect
			}
			y += r.NormFloat64() * 0.3
			rows = append(rows, models.ModelMatrixDayRow{
				StationID: s.id,
				Date:      date.Format(models.DateLayout),
				Trips:     int64(y + 0.5),
				Zone:      s.zone,
				TempMax:   22 + 5*r.Float64(),
				PrecipMM:  3 * r.Float64(),
				MobWork:   -20 + 2*r.NormFloat64(),
				MobTran:   -15 + 2*r.NormFloat64(),
				Dow:       int32((int(date.Weekday()) + 6) % 7),
			})
		}
	}
	return rows
}

func TestFitDIDRecoversTreatmentEffect(t *testing.T) {
	event := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := didPanel(event, 60, 5, 1)

	res, data, err := FitDID(rows, DIDOptions{EventDate: event, WindowDays: 60})
	require.NoError(t, err)

	assert.Equal(t, 2, data.NTreated)
	assert.Equal(t, 4, data.NControl)
	assert.Equal(t, 6, res.NClusters)

	did, err := res.Coef("did")
	require.NoError(t, err)
	assert.InDelta(t, 5, did, 0.6)

	post, err := res.Coef("post")
	require.NoError(t, err)
	assert.InDelta(t, 2, post, 0.6)
}

func TestFitDIDTreatmentRuleIsCaseInsensitive(t *testing.T) {
	event := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := didPanel(event, 30, 3, 2)

	_, data, err := FitDID(rows, DIDOptions{EventDate: event, WindowDays: 30})
	require.NoError(t, err)

	// "Centro storico" and "centro-sud" both match the needle
	assert.Equal(t, 2, data.NTreated)
}

func TestBuildDIDDataWindowFilter(t *testing.T) {
	event := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := didPanel(event, 90, 3, 3)

	data, err := BuildDIDData(rows, DIDOptions{EventDate: event, WindowDays: 10})
	require.NoError(t, err)

	// 6 stations x 21 days inside the +-10 day window
	assert.Equal(t, 6*21, data.Design.N())
}

func TestBuildDIDDataErrors(t *testing.T) {
	event := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := BuildDIDData(nil, DIDOptions{EventDate: event, WindowDays: 0})
	assert.ErrorContains(t, err, "window must be positive")

	_, err = BuildDIDData(nil, DIDOptions{EventDate: event, WindowDays: 30})
	assert.ErrorContains(t, err, "no observations")

	// all stations treated: no control group
	rows := didPanel(event, 10, 3, 4)
	for i := range rows {
		rows[i].Zone = "centro"
	}
	_, err = BuildDIDData(rows, DIDOptions{EventDate: event, WindowDays: 10})
	assert.ErrorContains(t, err, "treated and control")
}
