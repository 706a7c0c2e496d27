package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OLSResult holds a fitted linear model with cluster-robust inference.
type OLSResult struct {
	Coefficients []Coefficient
	R2           float64
	N            int
	NClusters    int
	fitted       []float64
}

// Fitted returns the fitted values.
func (r *OLSResult) Fitted() []float64 { return r.fitted }

// Coef returns the estimate for a named term, or an error if absent.
func (r *OLSResult) Coef(name string) (float64, error) {
	for _, c := range r.Coefficients {
		if c.Name == name {
			return c.Estimate, nil
		}
	}
	return 0, fmt.Errorf("no coefficient named %q", name)
}

// FitOLS fits y = X*beta by least squares with standard errors clustered
// over d.Clusters.
func FitOLS(d *Design) (*OLSResult, error) {
	n, p := d.N(), d.P()
	if n <= p {
		return nil, fmt.Errorf("cannot fit %d terms to %d observations", p, n)
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	beta, err := solveWLS(d.X, w, d.Y)
	if err != nil {
		return nil, fmt.Errorf("error fitting least squares: %w", err)
	}

	fitted := make([]float64, n)
	resid := make([]float64, n)
	var mean, sst, ssr float64
	for _, v := range d.Y {
		mean += v
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		var eta float64
		for j := 0; j < p; j++ {
			eta += beta[j] * d.X.At(i, j)
		}
		fitted[i] = eta
		resid[i] = d.Y[i] - eta
		ssr += resid[i] * resid[i]
		sst += (d.Y[i] - mean) * (d.Y[i] - mean)
	}

	cov, nClusters, err := clusterSandwich(d.X, w, resid, d.Clusters)
	if err != nil {
		return nil, err
	}

	res := &OLSResult{
		Coefficients: make([]Coefficient, p),
		N:            n,
		NClusters:    nClusters,
		fitted:       fitted,
	}
	if sst > 0 {
		res.R2 = 1 - ssr/sst
	}
	norm := distuv.UnitNormal
	for j := 0; j < p; j++ {
		se := math.Sqrt(cov.At(j, j))
		z := beta[j] / se
		res.Coefficients[j] = Coefficient{
			Name:     d.Names[j],
			Estimate: beta[j],
			SE:       se,
			Z:        z,
			P:        2 * norm.Survival(math.Abs(z)),
		}
	}
	return res, nil
}
