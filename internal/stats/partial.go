package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PartialPoint is one point of a partial-effect curve on the response scale.
type PartialPoint struct {
	X   float64
	Fit float64
	Lo  float64
	Hi  float64
}

// partialPoint predicts the response at a design row with a 95% interval on
// the link scale mapped through exp.
func partialPoint(res *GLMResult, x float64, row []float64) (PartialPoint, error) {
	fit, err := res.Predict(row)
	if err != nil {
		return PartialPoint{}, err
	}
	se, err := res.LinearSE(row)
	if err != nil {
		return PartialPoint{}, err
	}
	q := distuv.UnitNormal.Quantile(0.975)
	return PartialPoint{
		X:   x,
		Fit: fit,
		Lo:  fit * math.Exp(-q*se),
		Hi:  fit * math.Exp(q*se),
	}, nil
}
