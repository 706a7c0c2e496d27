package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare.trentomobility.org/internal/models"
)

func TestCheckProcessed(t *testing.T) {
	index := []models.AccessibilityRow{
		{StationID: 1}, {StationID: 2}, {StationID: 3},
	}
	hours := []models.StationHourRow{
		{StationID: 1, Date: "2022-06-01", Hour: 8},
		{StationID: 1, Date: "2022-06-01", Hour: 9},
		{StationID: 2, Date: "2022-06-03", Hour: 8},
	}

	report, err := CheckProcessed(index, hours)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Stations)
	assert.Equal(t, 3, report.HourRows)
	assert.Equal(t, "2022-06-01", report.FirstDate)
	assert.Equal(t, "2022-06-03", report.LastDate)
	assert.Equal(t, []int64{3}, report.OnlyInIndex)
	assert.Empty(t, report.OnlyInFeature)
}

func TestCheckProcessedDuplicateHourKey(t *testing.T) {
	index := []models.AccessibilityRow{{StationID: 1}}
	hours := []models.StationHourRow{
		{StationID: 1, Date: "2022-06-01", Hour: 8},
		{StationID: 1, Date: "2022-06-01", Hour: 8},
	}

	_, err := CheckProcessed(index, hours)
	assert.ErrorContains(t, err, "duplicate key")
}

func TestCheckProcessedDuplicateStation(t *testing.T) {
	index := []models.AccessibilityRow{{StationID: 1}, {StationID: 1}}

	_, err := CheckProcessed(index, nil)
	assert.ErrorContains(t, err, "duplicate station id")
}

func TestCheckProcessedUnknownFeatureStation(t *testing.T) {
	index := []models.AccessibilityRow{{StationID: 1}}
	hours := []models.StationHourRow{{StationID: 9, Date: "2022-06-01", Hour: 8}}

	_, err := CheckProcessed(index, hours)
	assert.ErrorContains(t, err, "absent from the index")
}
