package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanStationName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  STAZIONE   FF.SS.  ", "STAZIONE FS"},
		{"UNIVERSITA' mesiano", "Università Mesiano"},
		{"piazza DANTE", "Piazza DANTE"},
		{"bren center", "Bren Center"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanStationName(tt.in), "input %q", tt.in)
	}
}

func TestDowIsMondayBased(t *testing.T) {
	monday := time.Date(2022, 3, 7, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2022, 3, 13, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, Dow(monday))
	assert.Equal(t, 6, Dow(sunday))
}
