package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeData(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func TestNewSplineRejectsBadInput(t *testing.T) {
	_, err := NewSpline(rangeData(0, 10, 50), 3)
	assert.ErrorContains(t, err, "df must exceed")

	_, err = NewSpline([]float64{5}, 6)
	assert.ErrorContains(t, err, "at least two")

	_, err = NewSpline([]float64{5, 5, 5}, 6)
	assert.ErrorContains(t, err, "constant")
}

func TestSplineBasisShapeAndRange(t *testing.T) {
	s, err := NewSpline(rangeData(0, 23, 200), 8)
	require.NoError(t, err)
	assert.Equal(t, 8, s.DF())

	for _, v := range []float64{0, 3.5, 11, 17.2, 23} {
		b := s.Basis(v)
		require.Len(t, b, 8, "v=%g", v)
		sum := 0.0
		for _, bv := range b {
			assert.GreaterOrEqual(t, bv, 0.0, "v=%g", v)
			assert.LessOrEqual(t, bv, 1.0, "v=%g", v)
			sum += bv
		}
		// full basis partitions unity; one function was dropped
		assert.LessOrEqual(t, sum, 1.0+1e-9, "v=%g", v)
	}
}

func TestSplineBasisLocality(t *testing.T) {
	s, err := NewSpline(rangeData(0, 100, 500), 6)
	require.NoError(t, err)

	lo := s.Basis(1)
	hi := s.Basis(99)
	assert.NotEqual(t, lo, hi)
	// at the right boundary only the last basis function is active
	end := s.Basis(100)
	assert.InDelta(t, 1, end[len(end)-1], 1e-9)
	for _, v := range end[:len(end)-1] {
		assert.InDelta(t, 0, v, 1e-9)
	}
}

func TestSplineBasisClampsOutOfRange(t *testing.T) {
	s, err := NewSpline(rangeData(10, 30, 100), 5)
	require.NoError(t, err)

	assert.Equal(t, s.Basis(10), s.Basis(-5))
	assert.Equal(t, s.Basis(30), s.Basis(99))
}
