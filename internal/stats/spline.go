// Package stats fits the study's regression models: Poisson and Negative
// Binomial GLMs with spline terms for the count outcomes, and OLS for the
// difference-in-differences design. Standard errors are clustered by station
// throughout.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const splineDegree = 3

// Spline is a cubic B-spline basis over an observed covariate range, with
// interior knots placed at quantiles. Basis evaluates to df columns, matching
// a no-intercept bs(x, df) expansion: the first basis function is dropped so
// the design keeps a free intercept.
type Spline struct {
	knots []float64
	df    int
}

// NewSpline builds a cubic B-spline basis with the given degrees of freedom
// from the observed covariate values.
func NewSpline(x []float64, df int) (*Spline, error) {
	if df <= splineDegree {
		return nil, fmt.Errorf("spline df must exceed the cubic degree %d, got %d", splineDegree, df)
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("spline needs at least two observations, got %d", len(x))
	}

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return nil, fmt.Errorf("spline covariate is constant at %g", lo)
	}

	nInterior := df - splineDegree
	knots := make([]float64, 0, nInterior+2*(splineDegree+1))
	for i := 0; i <= splineDegree; i++ {
		knots = append(knots, lo)
	}
	for i := 1; i <= nInterior; i++ {
		p := float64(i) / float64(nInterior+1)
		knots = append(knots, stat.Quantile(p, stat.Empirical, sorted, nil))
	}
	for i := 0; i <= splineDegree; i++ {
		knots = append(knots, hi)
	}

	return &Spline{knots: knots, df: df}, nil
}

// DF returns the number of basis columns.
func (s *Spline) DF() int { return s.df }

// Basis evaluates the spline at v, returning df column values. Values outside
// the observed range are clamped to the boundary.
func (s *Spline) Basis(v float64) []float64 {
	lo := s.knots[0]
	hi := s.knots[len(s.knots)-1]
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}

	// Cox-de Boor recursion over the full basis, then drop the first column.
	nBasis := len(s.knots) - splineDegree - 1
	b := make([]float64, nBasis)
	for i := 0; i < nBasis; i++ {
		if (v >= s.knots[i] && v < s.knots[i+1]) ||
			(v == hi && s.knots[i] < s.knots[i+1] && s.knots[i+1] == hi) {
			b[i] = 1
		}
	}
	for d := 1; d <= splineDegree; d++ {
		for i := 0; i < nBasis; i++ {
			var left, right float64
			if denom := s.knots[i+d] - s.knots[i]; denom > 0 {
				left = (v - s.knots[i]) / denom * b[i]
			}
			if i+1 < nBasis {
				if denom := s.knots[i+d+1] - s.knots[i+1]; denom > 0 {
					right = (s.knots[i+d+1] - v) / denom * b[i+1]
				}
			}
			b[i] = left + right
		}
	}

	return b[1 : s.df+1]
}
