package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	irlsMaxIter = 50
	irlsTol     = 1e-8
)

// Family selects the GLM variance function. Both families use the log link.
type Family int

const (
	Poisson Family = iota
	NegativeBinomial
)

func (f Family) String() string {
	switch f {
	case Poisson:
		return "poisson"
	case NegativeBinomial:
		return "negative binomial"
	default:
		return "unknown"
	}
}

// Coefficient is one fitted term with its cluster-robust inference.
type Coefficient struct {
	Name     string
	Estimate float64
	SE       float64
	Z        float64
	P        float64
}

// GLMResult holds a fitted count model.
type GLMResult struct {
	Family       Family
	Dispersion   float64 // NegBin alpha; 0 for Poisson
	Coefficients []Coefficient
	LogLik       float64
	AIC          float64
	N            int
	NClusters    int
	Iterations   int
	fitted       []float64
	cov          *mat.Dense
	names        []string
}

// Fitted returns the fitted means.
func (r *GLMResult) Fitted() []float64 { return r.fitted }

// Coef returns the estimate for a named term, or an error if absent.
func (r *GLMResult) Coef(name string) (float64, error) {
	for _, c := range r.Coefficients {
		if c.Name == name {
			return c.Estimate, nil
		}
	}
	return 0, fmt.Errorf("no coefficient named %q", name)
}

// LinearSE returns the standard error of x'beta for a single design row.
func (r *GLMResult) LinearSE(x []float64) (float64, error) {
	if len(x) != len(r.names) {
		return 0, fmt.Errorf("design row has %d values, want %d", len(x), len(r.names))
	}
	xv := mat.NewVecDense(len(x), x)
	tmp := mat.NewVecDense(len(x), nil)
	tmp.MulVec(r.cov, xv)
	return math.Sqrt(mat.Dot(xv, tmp)), nil
}

// Predict returns the expected count for a single design row.
func (r *GLMResult) Predict(x []float64) (float64, error) {
	if len(x) != len(r.names) {
		return 0, fmt.Errorf("design row has %d values, want %d", len(x), len(r.names))
	}
	var eta float64
	for j, c := range r.Coefficients {
		eta += c.Estimate * x[j]
	}
	return math.Exp(eta), nil
}

// FitGLM fits a log-link count model by iteratively reweighted least squares.
// alpha is the Negative Binomial dispersion and is ignored for Poisson.
// Standard errors use the cluster-robust sandwich over d.Clusters.
func FitGLM(d *Design, family Family, alpha float64) (*GLMResult, error) {
	n, p := d.N(), d.P()
	if n <= p {
		return nil, fmt.Errorf("cannot fit %d terms to %d observations", p, n)
	}
	if family == NegativeBinomial && alpha <= 0 {
		return nil, fmt.Errorf("negative binomial dispersion must be positive, got %g", alpha)
	}
	for _, v := range d.Y {
		if v < 0 {
			return nil, fmt.Errorf("count outcome contains negative value %g", v)
		}
	}

	beta := make([]float64, p)
	// start at log mean outcome for the intercept
	mean := 0.0
	for _, v := range d.Y {
		mean += v
	}
	mean /= float64(n)
	beta[0] = math.Log(math.Max(mean, 1e-3))

	eta := make([]float64, n)
	mu := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	var iter int
	prevDev := math.Inf(1)
	for iter = 1; iter <= irlsMaxIter; iter++ {
		bv := mat.NewVecDense(p, beta)
		ev := mat.NewVecDense(n, eta)
		ev.MulVec(d.X, bv)

		for i := 0; i < n; i++ {
			mu[i] = math.Exp(eta[i])
			if mu[i] < 1e-10 {
				mu[i] = 1e-10
			}
			switch family {
			case Poisson:
				w[i] = mu[i]
			case NegativeBinomial:
				w[i] = mu[i] / (1 + alpha*mu[i])
			}
			z[i] = eta[i] + (d.Y[i]-mu[i])/mu[i]
		}

		next, err := solveWLS(d.X, w, z)
		if err != nil {
			return nil, fmt.Errorf("error solving weighted least squares at iteration %d: %w", iter, err)
		}
		copy(beta, next)

		dev := deviance(d.Y, mu, family, alpha)
		if math.Abs(dev-prevDev) < irlsTol*(math.Abs(dev)+irlsTol) {
			break
		}
		prevDev = dev
	}

	// final mu at the converged coefficients
	bv := mat.NewVecDense(p, beta)
	ev := mat.NewVecDense(n, eta)
	ev.MulVec(d.X, bv)
	for i := 0; i < n; i++ {
		mu[i] = math.Exp(eta[i])
		switch family {
		case Poisson:
			w[i] = mu[i]
		case NegativeBinomial:
			w[i] = mu[i] / (1 + alpha*mu[i])
		}
	}

	// working scores for the sandwich: x_i * w_i * (y_i - mu_i) / mu_i
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = w[i] * (d.Y[i] - mu[i]) / mu[i]
	}
	cov, nClusters, err := clusterSandwich(d.X, w, scores, d.Clusters)
	if err != nil {
		return nil, err
	}

	ll := logLikelihood(d.Y, mu, family, alpha)
	res := &GLMResult{
		Family:       family,
		Coefficients: make([]Coefficient, p),
		LogLik:       ll,
		AIC:          -2*ll + 2*float64(p),
		N:            n,
		NClusters:    nClusters,
		Iterations:   iter,
		fitted:       append([]float64(nil), mu...),
		cov:          cov,
		names:        d.Names,
	}
	if family == NegativeBinomial {
		res.Dispersion = alpha
	}
	norm := distuv.UnitNormal
	for j := 0; j < p; j++ {
		se := math.Sqrt(cov.At(j, j))
		zval := beta[j] / se
		res.Coefficients[j] = Coefficient{
			Name:     d.Names[j],
			Estimate: beta[j],
			SE:       se,
			Z:        zval,
			P:        2 * norm.Survival(math.Abs(zval)),
		}
	}
	return res, nil
}

// EstimateDispersion returns a method-of-moments Negative Binomial alpha from
// a fitted Poisson model, floored at a small positive value.
func EstimateDispersion(y, mu []float64) float64 {
	var sum float64
	var n int
	for i := range y {
		if mu[i] <= 0 {
			continue
		}
		sum += ((y[i]-mu[i])*(y[i]-mu[i]) - mu[i]) / (mu[i] * mu[i])
		n++
	}
	if n == 0 {
		return 1e-6
	}
	alpha := sum / float64(n)
	if alpha < 1e-6 {
		alpha = 1e-6
	}
	return alpha
}

func solveWLS(x *mat.Dense, w, z []float64) ([]float64, error) {
	n, p := x.Dims()
	xtwx := mat.NewDense(p, p, nil)
	xtwz := mat.NewVecDense(p, nil)
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, x)
		for a := 0; a < p; a++ {
			xtwz.SetVec(a, xtwz.AtVec(a)+w[i]*row[a]*z[i])
			for b := a; b < p; b++ {
				v := xtwx.At(a, b) + w[i]*row[a]*row[b]
				xtwx.Set(a, b, v)
				if a != b {
					xtwx.Set(b, a, v)
				}
			}
		}
	}
	var sol mat.VecDense
	if err := sol.SolveVec(xtwx, xtwz); err != nil {
		return nil, fmt.Errorf("design matrix is singular: %w", err)
	}
	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = sol.AtVec(j)
	}
	return out, nil
}

// clusterSandwich computes bread * meat * bread where bread = (X'WX)^-1 and
// the meat sums outer products of per-cluster score totals.
func clusterSandwich(x *mat.Dense, w, scores []float64, clusters []string) (*mat.Dense, int, error) {
	n, p := x.Dims()

	xtwx := mat.NewDense(p, p, nil)
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, x)
		for a := 0; a < p; a++ {
			for b := a; b < p; b++ {
				v := xtwx.At(a, b) + w[i]*row[a]*row[b]
				xtwx.Set(a, b, v)
				if a != b {
					xtwx.Set(b, a, v)
				}
			}
		}
	}
	var bread mat.Dense
	if err := bread.Inverse(xtwx); err != nil {
		return nil, 0, fmt.Errorf("error inverting information matrix: %w", err)
	}

	sums := make(map[string][]float64)
	for i := 0; i < n; i++ {
		s := sums[clusters[i]]
		if s == nil {
			s = make([]float64, p)
			sums[clusters[i]] = s
		}
		row := mat.Row(nil, i, x)
		for j := 0; j < p; j++ {
			s[j] += scores[i] * row[j]
		}
	}

	meat := mat.NewDense(p, p, nil)
	for _, s := range sums {
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				meat.Set(a, b, meat.At(a, b)+s[a]*s[b])
			}
		}
	}

	// small-sample correction G/(G-1)
	g := len(sums)
	if g > 1 {
		meat.Scale(float64(g)/float64(g-1), meat)
	}

	var tmp, cov mat.Dense
	tmp.Mul(&bread, meat)
	cov.Mul(&tmp, &bread)
	out := mat.NewDense(p, p, nil)
	out.Copy(&cov)
	return out, g, nil
}

func deviance(y, mu []float64, family Family, alpha float64) float64 {
	var dev float64
	for i := range y {
		switch family {
		case Poisson:
			if y[i] > 0 {
				dev += 2 * (y[i]*math.Log(y[i]/mu[i]) - (y[i] - mu[i]))
			} else {
				dev += 2 * mu[i]
			}
		case NegativeBinomial:
			if y[i] > 0 {
				dev += 2 * (y[i]*math.Log(y[i]/mu[i]) -
					(y[i]+1/alpha)*math.Log((1+alpha*y[i])/(1+alpha*mu[i])))
			} else {
				dev += 2 / alpha * math.Log(1+alpha*mu[i])
			}
		}
	}
	return dev
}

func logLikelihood(y, mu []float64, family Family, alpha float64) float64 {
	var ll float64
	for i := range y {
		switch family {
		case Poisson:
			ll += y[i]*math.Log(mu[i]) - mu[i] - lgamma(y[i]+1)
		case NegativeBinomial:
			r := 1 / alpha
			ll += lgamma(y[i]+r) - lgamma(r) - lgamma(y[i]+1) +
				r*math.Log(r/(r+mu[i])) + y[i]*math.Log(mu[i]/(r+mu[i]))
		}
	}
	return ll
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
