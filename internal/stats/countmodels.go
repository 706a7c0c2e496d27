package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"bikeshare.trentomobility.org/internal/models"
)

// CountModelOptions holds the spline degrees of freedom for the count models.
type CountModelOptions struct {
	HourSplineDF int
	TmaxSplineDF int
}

// HourModel is the hourly trip-count model
//
//	trips ~ bs(hour) + bs(temp_max) + precip + C(dow) + C(zone)
//
// fitted as Poisson and as a Negative Binomial robustness check, clustered
// by station.
type HourModel struct {
	Poisson *GLMResult
	NegBin  *GLMResult

	hourSpline *Spline
	tmaxSpline *Spline
	dowLevels  []string
	zoneLevels []string

	hourRange  [2]float64
	baseTmax   float64
	basePrecip float64
	baseDow    string
	baseZone   string
}

// FitHourModels fits the hourly count models on the hourly model matrix.
func FitHourModels(rows []models.ModelMatrixHourRow, opts CountModelOptions) (*HourModel, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("hourly model matrix is empty")
	}

	n := len(rows)
	y := make([]float64, n)
	hours := make([]float64, n)
	tmax := make([]float64, n)
	precip := make([]float64, n)
	dow := make([]string, n)
	zone := make([]string, n)
	clusters := make([]string, n)
	for i, r := range rows {
		y[i] = float64(r.Trips)
		hours[i] = float64(r.Hour)
		tmax[i] = r.TempMax
		precip[i] = r.PrecipMM
		dow[i] = strconv.Itoa(int(r.Dow))
		zone[i] = r.Zone
		clusters[i] = strconv.FormatInt(r.StationID, 10)
	}

	hourSpline, err := NewSpline(dropNaN(hours), opts.HourSplineDF)
	if err != nil {
		return nil, fmt.Errorf("error building hour spline: %w", err)
	}
	tmaxSpline, err := NewSpline(dropNaN(tmax), opts.TmaxSplineDF)
	if err != nil {
		return nil, fmt.Errorf("error building temperature spline: %w", err)
	}

	d, err := NewDesignBuilder(n).
		AddSpline("hour", hourSpline, hours).
		AddSpline("tmax", tmaxSpline, tmax).
		AddColumn("precip_mm", precip).
		AddDummies("dow", dow).
		AddDummies("zone", zone).
		Build(y, clusters)
	if err != nil {
		return nil, fmt.Errorf("error building hourly design: %w", err)
	}

	pois, err := FitGLM(d, Poisson, 0)
	if err != nil {
		return nil, fmt.Errorf("error fitting hourly Poisson model: %w", err)
	}
	alpha := EstimateDispersion(d.Y, pois.Fitted())
	nb, err := FitGLM(d, NegativeBinomial, alpha)
	if err != nil {
		return nil, fmt.Errorf("error fitting hourly negative binomial model: %w", err)
	}

	clean := dropNaN(hours)
	m := &HourModel{
		Poisson:    pois,
		NegBin:     nb,
		hourSpline: hourSpline,
		tmaxSpline: tmaxSpline,
		dowLevels:  distinctSorted(dow),
		zoneLevels: distinctSorted(zone),
		hourRange:  [2]float64{minOf(clean), maxOf(clean)},
		baseTmax:   median(tmax),
		basePrecip: median(precip),
		baseDow:    mode(dow),
		baseZone:   mode(zone),
	}
	return m, nil
}

// PartialHourCurve evaluates the fitted hourly profile with the remaining
// covariates held at their median or mode, with a 95% band.
func (m *HourModel) PartialHourCurve(res *GLMResult) ([]PartialPoint, error) {
	lo := int(m.hourRange[0])
	hi := int(m.hourRange[1])
	points := make([]PartialPoint, 0, hi-lo+1)
	for h := lo; h <= hi; h++ {
		row := m.designRow(float64(h), m.baseTmax, m.basePrecip, m.baseDow, m.baseZone)
		pt, err := partialPoint(res, float64(h), row)
		if err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	return points, nil
}

// PartialTmaxCurve evaluates the fitted temperature response at a fixed
// mid-morning hour, remaining covariates at median or mode.
func (m *HourModel) PartialTmaxCurve(res *GLMResult, points int) ([]PartialPoint, error) {
	grid := gridOver(m.tmaxSpline.knots[0], m.tmaxSpline.knots[len(m.tmaxSpline.knots)-1], points)
	out := make([]PartialPoint, 0, len(grid))
	for _, t := range grid {
		row := m.designRow(9, t, m.basePrecip, m.baseDow, m.baseZone)
		pt, err := partialPoint(res, t, row)
		if err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, nil
}

func (m *HourModel) designRow(hour, tmax, precip float64, dow, zone string) []float64 {
	row := []float64{1}
	row = append(row, m.hourSpline.Basis(hour)...)
	row = append(row, m.tmaxSpline.Basis(tmax)...)
	row = append(row, precip)
	row = append(row, dummyRow(m.dowLevels, dow)...)
	row = append(row, dummyRow(m.zoneLevels, zone)...)
	return row
}

// DayModel is the daily trip-count model
//
//	trips ~ bs(temp_max) + precip + mob_work + mob_transit + C(dow) + C(zone)
type DayModel struct {
	Poisson *GLMResult
	NegBin  *GLMResult

	tmaxSpline *Spline
	dowLevels  []string
	zoneLevels []string

	basePrecip  float64
	baseWork    float64
	baseTransit float64
	baseDow     string
	baseZone    string
}

// FitDayModels fits the daily count models on the daily model matrix.
func FitDayModels(rows []models.ModelMatrixDayRow, opts CountModelOptions) (*DayModel, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("daily model matrix is empty")
	}

	n := len(rows)
	y := make([]float64, n)
	tmax := make([]float64, n)
	precip := make([]float64, n)
	work := make([]float64, n)
	transit := make([]float64, n)
	dow := make([]string, n)
	zone := make([]string, n)
	clusters := make([]string, n)
	for i, r := range rows {
		y[i] = float64(r.Trips)
		tmax[i] = r.TempMax
		precip[i] = r.PrecipMM
		work[i] = r.MobWork
		transit[i] = r.MobTran
		dow[i] = strconv.Itoa(int(r.Dow))
		zone[i] = r.Zone
		clusters[i] = strconv.FormatInt(r.StationID, 10)
	}

	tmaxSpline, err := NewSpline(dropNaN(tmax), opts.TmaxSplineDF)
	if err != nil {
		return nil, fmt.Errorf("error building temperature spline: %w", err)
	}

	d, err := NewDesignBuilder(n).
		AddSpline("tmax", tmaxSpline, tmax).
		AddColumn("precip_mm", precip).
		AddColumn("mob_work", work).
		AddColumn("mob_transit", transit).
		AddDummies("dow", dow).
		AddDummies("zone", zone).
		Build(y, clusters)
	if err != nil {
		return nil, fmt.Errorf("error building daily design: %w", err)
	}

	pois, err := FitGLM(d, Poisson, 0)
	if err != nil {
		return nil, fmt.Errorf("error fitting daily Poisson model: %w", err)
	}
	alpha := EstimateDispersion(d.Y, pois.Fitted())
	nb, err := FitGLM(d, NegativeBinomial, alpha)
	if err != nil {
		return nil, fmt.Errorf("error fitting daily negative binomial model: %w", err)
	}

	return &DayModel{
		Poisson:     pois,
		NegBin:      nb,
		tmaxSpline:  tmaxSpline,
		dowLevels:   distinctSorted(dow),
		zoneLevels:  distinctSorted(zone),
		basePrecip:  median(precip),
		baseWork:    median(work),
		baseTransit: median(transit),
		baseDow:     mode(dow),
		baseZone:    mode(zone),
	}, nil
}

// PartialTmaxCurve evaluates the fitted daily temperature response, remaining
// covariates at median or mode, with a 95% band.
func (m *DayModel) PartialTmaxCurve(res *GLMResult, points int) ([]PartialPoint, error) {
	grid := gridOver(m.tmaxSpline.knots[0], m.tmaxSpline.knots[len(m.tmaxSpline.knots)-1], points)
	out := make([]PartialPoint, 0, len(grid))
	for _, t := range grid {
		row := []float64{1}
		row = append(row, m.tmaxSpline.Basis(t)...)
		row = append(row, m.basePrecip, m.baseWork, m.baseTransit)
		row = append(row, dummyRow(m.dowLevels, m.baseDow)...)
		row = append(row, dummyRow(m.zoneLevels, m.baseZone)...)
		pt, err := partialPoint(res, t, row)
		if err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, nil
}

func dummyRow(levels []string, value string) []float64 {
	if len(levels) < 2 {
		return nil
	}
	out := make([]float64, len(levels)-1)
	for j, level := range levels[1:] {
		if value == level {
			out[j] = 1
		}
	}
	return out
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func median(x []float64) float64 {
	clean := dropNaN(x)
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	return stat.Quantile(0.5, stat.Empirical, clean, nil)
}

func mode(labels []string) string {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	var best string
	bestN := -1
	for _, l := range distinctSorted(labels) {
		if counts[l] > bestN {
			best, bestN = l, counts[l]
		}
	}
	return best
}

func minOf(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(x []float64) float64 {
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func gridOver(lo, hi float64, points int) []float64 {
	if points < 2 {
		points = 2
	}
	out := make([]float64, points)
	step := (hi - lo) / float64(points-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
