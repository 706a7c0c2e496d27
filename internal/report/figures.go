// Package report renders the study's figures and ranking tables from the
// processed feature tables and the fitted models.
package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bikeshare.trentomobility.org/internal/models"
	"bikeshare.trentomobility.org/internal/stats"
)

const (
	figWidth  = 8 * vg.Inch
	figHeight = 5 * vg.Inch
)

// MobilityTimeSeries plots the 7-day rolling mean of the transit and
// workplace mobility series.
func MobilityTimeSeries(path string, temporal []models.TemporalDay) error {
	if len(temporal) == 0 {
		return fmt.Errorf("no temporal rows to plot")
	}
	rows := append([]models.TemporalDay(nil), temporal...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	transit := rollingSeries(rows, func(r models.TemporalDay) float64 { return r.MobTransit })
	work := rollingSeries(rows, func(r models.TemporalDay) float64 { return r.MobWork })

	p := plot.New()
	p.Title.Text = "Google Mobility, 7-day rolling mean"
	p.X.Label.Text = "date"
	p.Y.Label.Text = "% change from baseline"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	if err := plotutil.AddLines(p, "transit stations", transit, "workplaces", work); err != nil {
		return fmt.Errorf("error adding mobility lines: %w", err)
	}
	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// TempMobilityScatter plots daily transit mobility against max temperature
// with means over 10 temperature bins.
func TempMobilityScatter(path string, temporal []models.TemporalDay) error {
	var pts plotter.XYs
	for _, r := range temporal {
		if math.IsNaN(r.TempMax) || math.IsNaN(r.MobTransit) {
			continue
		}
		pts = append(pts, plotter.XY{X: r.TempMax, Y: r.MobTransit})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no complete temperature/mobility pairs to plot")
	}

	p := plot.New()
	p.Title.Text = "Transit mobility vs daily max temperature"
	p.X.Label.Text = "max temperature (°C)"
	p.Y.Label.Text = "transit % change from baseline"

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("error building scatter: %w", err)
	}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 120}
	p.Add(sc)

	means, err := plotter.NewLine(binnedMeans(pts, 10))
	if err != nil {
		return fmt.Errorf("error building binned means: %w", err)
	}
	means.LineStyle.Width = vg.Points(2)
	means.LineStyle.Color = plotutil.Color(1)
	p.Add(means)
	p.Legend.Add("10-bin mean", means)

	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// RainBoxPlots compares transit mobility on dry, wet and heavy-rain days.
func RainBoxPlots(path string, temporal []models.TemporalDay) error {
	groups := map[int]plotter.Values{}
	for _, r := range temporal {
		if math.IsNaN(r.MobTransit) || math.IsNaN(r.PrecipMM) {
			continue
		}
		g := 0
		if r.RainBinary == 1 {
			g = 1
		}
		if r.RainHeavy == 1 {
			g = 2
		}
		groups[g] = append(groups[g], r.MobTransit)
	}
	if len(groups) == 0 {
		return fmt.Errorf("no complete rain/mobility rows to plot")
	}

	p := plot.New()
	p.Title.Text = "Transit mobility by rainfall"
	p.Y.Label.Text = "transit % change from baseline"
	p.NominalX("dry", "rain", "heavy rain (>=10 mm)")

	for g := 0; g <= 2; g++ {
		vals, ok := groups[g]
		if !ok {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(g), vals)
		if err != nil {
			return fmt.Errorf("error building box plot: %w", err)
		}
		p.Add(box)
	}

	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// SupplyProfiles plots the mean hourly departure count near stations, one
// line per quartile of total station supply.
func SupplyProfiles(path string, hours []models.StationHourRow) error {
	if len(hours) == 0 {
		return fmt.Errorf("no station-hour rows to plot")
	}

	totals := make(map[int64]int64)
	for _, r := range hours {
		totals[r.StationID] += r.DepTotal
	}
	quartile := stationQuartiles(totals)

	type cell struct {
		sum float64
		n   int
	}
	cells := make(map[int]map[int32]*cell)
	for q := 0; q < 4; q++ {
		cells[q] = make(map[int32]*cell)
	}
	for _, r := range hours {
		q := quartile[r.StationID]
		c := cells[q][r.Hour]
		if c == nil {
			c = &cell{}
			cells[q][r.Hour] = c
		}
		c.sum += float64(r.DepTotal)
		c.n++
	}

	p := plot.New()
	p.Title.Text = "Hourly transit departures near stations, by supply quartile"
	p.X.Label.Text = "hour of service day"
	p.Y.Label.Text = "mean departures within 300 m"

	var args []interface{}
	for q := 0; q < 4; q++ {
		var xy plotter.XYs
		hoursOf := make([]int32, 0, len(cells[q]))
		for h := range cells[q] {
			hoursOf = append(hoursOf, h)
		}
		sort.Slice(hoursOf, func(i, j int) bool { return hoursOf[i] < hoursOf[j] })
		for _, h := range hoursOf {
			c := cells[q][h]
			xy = append(xy, plotter.XY{X: float64(h), Y: c.sum / float64(c.n)})
		}
		if len(xy) == 0 {
			continue
		}
		args = append(args, fmt.Sprintf("Q%d", q+1), xy)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return fmt.Errorf("error adding supply profiles: %w", err)
	}

	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// StationMap draws the station locations colored by intermodality quartile.
func StationMap(path string, index []models.AccessibilityRow) error {
	if len(index) == 0 {
		return fmt.Errorf("no accessibility rows to plot")
	}

	byIdx := make(map[int64]int64, len(index))
	for _, r := range index {
		// quartiles over the scaled index keep the split integral
		byIdx[r.StationID] = int64(r.Idx300m * 10)
	}
	quartile := stationQuartiles(byIdx)

	p := plot.New()
	p.Title.Text = "Stations by intermodality index (300 m)"
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"

	for q := 0; q < 4; q++ {
		var pts plotter.XYs
		for _, r := range index {
			if quartile[r.StationID] == q {
				pts = append(pts, plotter.XY{X: r.Lon, Y: r.Lat})
			}
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("error building station scatter: %w", err)
		}
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Color = plotutil.Color(q)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("Q%d", q+1), sc)
	}

	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// PartialEffectFigure plots a partial-effect curve with its 95% band.
func PartialEffectFigure(path, title, xlabel string, pts []stats.PartialPoint) error {
	if len(pts) == 0 {
		return fmt.Errorf("no partial-effect points to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "expected trips"

	band := make(plotter.XYs, 0, 2*len(pts))
	for _, pt := range pts {
		band = append(band, plotter.XY{X: pt.X, Y: pt.Lo})
	}
	for i := len(pts) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: pts[i].X, Y: pts[i].Hi})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("error building confidence band: %w", err)
	}
	poly.Color = color.RGBA{R: 160, G: 190, B: 230, A: 90}
	poly.LineStyle.Width = 0
	p.Add(poly)

	var fit plotter.XYs
	for _, pt := range pts {
		fit = append(fit, plotter.XY{X: pt.X, Y: pt.Fit})
	}
	line, err := plotter.NewLine(fit)
	if err != nil {
		return fmt.Errorf("error building fit line: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = plotutil.Color(0)
	p.Add(line)
	p.Legend.Add("fit", line)

	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// DIDGroupMeans plots mean daily trips for treated and control stations with
// a rule at the event date.
func DIDGroupMeans(path string, rows []models.ModelMatrixDayRow, event time.Time, treatNeedle string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no daily rows to plot")
	}
	needle := strings.ToLower(treatNeedle)
	if needle == "" {
		needle = stats.DefaultTreatNeedle
	}

	type cell struct {
		sum float64
		n   int
	}
	groups := map[bool]map[string]*cell{true: {}, false: {}}
	for _, r := range rows {
		treated := strings.Contains(strings.ToLower(r.Zone), needle)
		c := groups[treated][r.Date]
		if c == nil {
			c = &cell{}
			groups[treated][r.Date] = c
		}
		c.sum += float64(r.Trips)
		c.n++
	}

	p := plot.New()
	p.Title.Text = "Mean daily trips, treated vs control stations"
	p.X.Label.Text = "date"
	p.Y.Label.Text = "mean trips per station"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02"}

	var maxY float64
	series := func(treated bool) (plotter.XYs, error) {
		dates := make([]string, 0, len(groups[treated]))
		for d := range groups[treated] {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		var xy plotter.XYs
		for _, d := range dates {
			t, err := time.Parse(models.DateLayout, d)
			if err != nil {
				return nil, fmt.Errorf("error parsing date %q: %w", d, err)
			}
			c := groups[treated][d]
			y := c.sum / float64(c.n)
			if y > maxY {
				maxY = y
			}
			xy = append(xy, plotter.XY{X: float64(t.Unix()), Y: y})
		}
		return xy, nil
	}
	treatedXY, err := series(true)
	if err != nil {
		return err
	}
	controlXY, err := series(false)
	if err != nil {
		return err
	}
	if err := plotutil.AddLines(p, "treated (centre)", treatedXY, "control", controlXY); err != nil {
		return fmt.Errorf("error adding group means: %w", err)
	}

	rule, err := plotter.NewLine(plotter.XYs{
		{X: float64(event.Unix()), Y: 0},
		{X: float64(event.Unix()), Y: maxY},
	})
	if err != nil {
		return fmt.Errorf("error building event rule: %w", err)
	}
	rule.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	rule.LineStyle.Color = color.RGBA{A: 255}
	p.Add(rule)
	p.Legend.Add("event", rule)

	if err := p.Save(figWidth, figHeight, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// rollingSeries builds the 7-day trailing mean as unix-time XY points,
// skipping NaN values.
func rollingSeries(rows []models.TemporalDay, get func(models.TemporalDay) float64) plotter.XYs {
	var out plotter.XYs
	var window []float64
	for i, r := range rows {
		v := get(r)
		if !math.IsNaN(v) {
			window = append(window, v)
		}
		if len(window) > 7 {
			window = window[1:]
		}
		if len(window) == 0 {
			continue
		}
		var sum float64
		for _, w := range window {
			sum += w
		}
		out = append(out, plotter.XY{X: float64(rows[i].Date.Unix()), Y: sum / float64(len(window))})
	}
	return out
}

// binnedMeans averages y over nbins equal-width x bins.
func binnedMeans(pts plotter.XYs, nbins int) plotter.XYs {
	lo, hi := pts[0].X, pts[0].X
	for _, p := range pts {
		if p.X < lo {
			lo = p.X
		}
		if p.X > hi {
			hi = p.X
		}
	}
	if hi == lo {
		return plotter.XYs{{X: lo, Y: meanY(pts)}}
	}

	width := (hi - lo) / float64(nbins)
	sums := make([]float64, nbins)
	counts := make([]int, nbins)
	for _, p := range pts {
		b := int((p.X - lo) / width)
		if b >= nbins {
			b = nbins - 1
		}
		sums[b] += p.Y
		counts[b]++
	}

	var out plotter.XYs
	for b := 0; b < nbins; b++ {
		if counts[b] == 0 {
			continue
		}
		out = append(out, plotter.XY{
			X: lo + (float64(b)+0.5)*width,
			Y: sums[b] / float64(counts[b]),
		})
	}
	return out
}

func meanY(pts plotter.XYs) float64 {
	var sum float64
	for _, p := range pts {
		sum += p.Y
	}
	return sum / float64(len(pts))
}

// stationQuartiles splits stations into four groups by the given totals.
func stationQuartiles(totals map[int64]int64) map[int64]int {
	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] < totals[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make(map[int64]int, len(ids))
	for i, id := range ids {
		q := i * 4 / len(ids)
		if q > 3 {
			q = 3
		}
		out[id] = q
	}
	return out
}
