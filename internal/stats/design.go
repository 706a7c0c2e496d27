package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Design is an assembled regression design: named columns, the outcome vector
// and the cluster label of each observation.
type Design struct {
	Names    []string
	X        *mat.Dense
	Y        []float64
	Clusters []string
}

// N returns the number of observations.
func (d *Design) N() int { return len(d.Y) }

// P returns the number of columns.
func (d *Design) P() int { return len(d.Names) }

type designColumn struct {
	name   string
	values []float64
}

// DesignBuilder accumulates columns for a Design. Columns are appended in
// call order; an intercept is always the first column.
type DesignBuilder struct {
	n    int
	cols []designColumn
	errs []error
}

// NewDesignBuilder starts a design for n observations with an intercept.
func NewDesignBuilder(n int) *DesignBuilder {
	b := &DesignBuilder{n: n}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	b.cols = append(b.cols, designColumn{name: "intercept", values: ones})
	return b
}

// AddColumn appends a single continuous column.
func (b *DesignBuilder) AddColumn(name string, values []float64) *DesignBuilder {
	if len(values) != b.n {
		b.errs = append(b.errs, fmt.Errorf("column %s has %d values, want %d", name, len(values), b.n))
		return b
	}
	b.cols = append(b.cols, designColumn{name: name, values: values})
	return b
}

// AddSpline appends the basis columns of s evaluated at values, named
// name_s1..name_sdf.
func (b *DesignBuilder) AddSpline(name string, s *Spline, values []float64) *DesignBuilder {
	if len(values) != b.n {
		b.errs = append(b.errs, fmt.Errorf("spline %s has %d values, want %d", name, len(values), b.n))
		return b
	}
	cols := make([]designColumn, s.DF())
	for j := range cols {
		cols[j] = designColumn{
			name:   fmt.Sprintf("%s_s%d", name, j+1),
			values: make([]float64, b.n),
		}
	}
	for i, v := range values {
		if math.IsNaN(v) {
			// missing covariate drops the row at Build time
			for j := range cols {
				cols[j].values[i] = math.NaN()
			}
			continue
		}
		basis := s.Basis(v)
		for j, bv := range basis {
			cols[j].values[i] = bv
		}
	}
	b.cols = append(b.cols, cols...)
	return b
}

// AddDummies appends one indicator column per level of labels except the
// first (levels sorted lexically), named name_level.
func (b *DesignBuilder) AddDummies(name string, labels []string) *DesignBuilder {
	if len(labels) != b.n {
		b.errs = append(b.errs, fmt.Errorf("factor %s has %d values, want %d", name, len(labels), b.n))
		return b
	}
	levels := distinctSorted(labels)
	if len(levels) < 2 {
		// a constant factor contributes nothing beyond the intercept
		return b
	}
	for _, level := range levels[1:] {
		col := designColumn{
			name:   fmt.Sprintf("%s_%s", name, level),
			values: make([]float64, b.n),
		}
		for i, l := range labels {
			if l == level {
				col.values[i] = 1
			}
		}
		b.cols = append(b.cols, col)
	}
	return b
}

// Build finalizes the design against the outcome and cluster labels. Rows
// where any column or the outcome is NaN are dropped.
func (b *DesignBuilder) Build(y []float64, clusters []string) (*Design, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(y) != b.n {
		return nil, fmt.Errorf("outcome has %d values, want %d", len(y), b.n)
	}
	if len(clusters) != b.n {
		return nil, fmt.Errorf("clusters has %d values, want %d", len(clusters), b.n)
	}

	keep := make([]int, 0, b.n)
	for i := 0; i < b.n; i++ {
		ok := !math.IsNaN(y[i])
		for _, c := range b.cols {
			if math.IsNaN(c.values[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("no complete observations after dropping missing values")
	}

	p := len(b.cols)
	d := &Design{
		Names:    make([]string, p),
		X:        mat.NewDense(len(keep), p, nil),
		Y:        make([]float64, len(keep)),
		Clusters: make([]string, len(keep)),
	}
	for j, c := range b.cols {
		d.Names[j] = c.name
	}
	for r, i := range keep {
		d.Y[r] = y[i]
		d.Clusters[r] = clusters[i]
		for j, c := range b.cols {
			d.X.Set(r, j, c.values[i])
		}
	}
	return d, nil
}

func distinctSorted(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
