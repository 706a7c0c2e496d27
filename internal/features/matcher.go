// Package features derives the study's model inputs: station-to-stop spatial
// matching, GTFS service-calendar expansion, hourly departure aggregation and
// the covariate/model-matrix joins.
package features

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"bikeshare.trentomobility.org/internal/geo"
	"bikeshare.trentomobility.org/internal/models"
)

// StopPoint is one transit stop with its precomputed distinct-route count.
type StopPoint struct {
	FeedID string
	ID     string
	Name   string
	Point  orb.Point // WGS84 lon/lat
	Routes int
}

type stopNode struct {
	StopPoint
	utm orb.Point
}

func (n *stopNode) Point() orb.Point { return n.utm }

// Matcher answers radius queries about transit stops around station points.
// Callers pass WGS84 lon/lat; the constructor and every query project to UTM
// zone 32N internally, so all distances are meters.
type Matcher struct {
	radii       []int
	routeWeight float64
	tree        *quadtree.Quadtree
	nodes       []*stopNode
}

// NewMatcher indexes the stop set for radius queries. radii are the buffer
// distances in meters; routeWeight is the intermodality index weight.
func NewMatcher(stops []StopPoint, radii []int, routeWeight float64) (*Matcher, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("matcher needs at least one stop")
	}
	if len(radii) == 0 {
		return nil, fmt.Errorf("matcher needs at least one radius")
	}
	radii = append([]int(nil), radii...)
	sort.Ints(radii)
	if radii[0] <= 0 {
		return nil, fmt.Errorf("radii must be positive, got %d", radii[0])
	}

	nodes := make([]*stopNode, len(stops))
	bound := orb.Bound{Min: orb.Point{1e18, 1e18}, Max: orb.Point{-1e18, -1e18}}
	for i, s := range stops {
		utm := geo.ProjectUTM(s.Point, geo.TrentoZone)
		nodes[i] = &stopNode{StopPoint: s, utm: utm}
		bound = bound.Extend(utm)
	}
	// pad so boundary points are strictly inside
	pad := float64(radii[len(radii)-1])
	bound.Min = orb.Point{bound.Min[0] - pad, bound.Min[1] - pad}
	bound.Max = orb.Point{bound.Max[0] + pad, bound.Max[1] + pad}

	tree := quadtree.New(bound)
	for _, n := range nodes {
		if err := tree.Add(n); err != nil {
			return nil, fmt.Errorf("error indexing stop %s: %w", n.ID, err)
		}
	}

	return &Matcher{radii: radii, routeWeight: routeWeight, tree: tree, nodes: nodes}, nil
}

// Match produces the accessibility record for each station: per-radius stop
// counts, distinct-route sums, the intermodality index, and the nearest stop.
// A station with nothing nearby gets explicit zeros.
func (m *Matcher) Match(stations []models.Station) []models.StationAccessibility {
	maxRadius := float64(m.radii[len(m.radii)-1])

	out := make([]models.StationAccessibility, 0, len(stations))
	for _, st := range stations {
		center := geo.ProjectUTM(st.Point, geo.TrentoZone)
		acc := models.StationAccessibility{
			StationID: st.ID,
			Name:      st.Name,
			Capacity:  st.Capacity,
			Lat:       st.Point.Lat(),
			Lon:       st.Point.Lon(),
			ByRadius:  make(map[int]models.RadiusMetrics, len(m.radii)),
		}
		for _, r := range m.radii {
			acc.ByRadius[r] = models.RadiusMetrics{}
		}

		searchBound := orb.Bound{
			Min: orb.Point{center[0] - maxRadius, center[1] - maxRadius},
			Max: orb.Point{center[0] + maxRadius, center[1] + maxRadius},
		}
		for _, ptr := range m.tree.InBound(nil, searchBound) {
			node := ptr.(*stopNode)
			dist := planar.Distance(center, node.utm)
			for _, r := range m.radii {
				if dist <= float64(r) {
					metrics := acc.ByRadius[r]
					metrics.Stops++
					metrics.Routes += node.Routes
					acc.ByRadius[r] = metrics
				}
			}
		}
		for _, r := range m.radii {
			metrics := acc.ByRadius[r]
			metrics.Index = float64(metrics.Stops) + m.routeWeight*float64(metrics.Routes)
			acc.ByRadius[r] = metrics
		}

		if nearest := m.tree.Find(center); nearest != nil {
			node := nearest.(*stopNode)
			acc.NearestStopID = node.ID
			acc.NearestStopName = node.Name
			acc.NearestStopDist = planar.Distance(center, node.utm)
		}

		out = append(out, acc)
	}
	return out
}

// StopsWithin returns the stops within radius meters of the station point,
// used to attribute per-stop departures to stations.
func (m *Matcher) StopsWithin(station models.Station, radius int) []StopPoint {
	center := geo.ProjectUTM(station.Point, geo.TrentoZone)
	r := float64(radius)
	searchBound := orb.Bound{
		Min: orb.Point{center[0] - r, center[1] - r},
		Max: orb.Point{center[0] + r, center[1] + r},
	}

	var stops []StopPoint
	for _, ptr := range m.tree.InBound(nil, searchBound) {
		node := ptr.(*stopNode)
		if planar.Distance(center, node.utm) <= r {
			stops = append(stops, node.StopPoint)
		}
	}
	return stops
}

// AccessibilityRows projects accessibility records onto the persisted schema
// at the canonical 300 m and 500 m radii.
func AccessibilityRows(accs []models.StationAccessibility) []models.AccessibilityRow {
	rows := make([]models.AccessibilityRow, len(accs))
	for i, a := range accs {
		m300 := a.ByRadius[300]
		m500 := a.ByRadius[500]
		rows[i] = models.AccessibilityRow{
			StationID:       int64(a.StationID),
			Name:            a.Name,
			Capacity:        int64(a.Capacity),
			Lat:             a.Lat,
			Lon:             a.Lon,
			NearestStopID:   a.NearestStopID,
			NearestStopName: a.NearestStopName,
			DistToStopM:     a.NearestStopDist,
			Stops300m:       int64(m300.Stops),
			Routes300m:      int64(m300.Routes),
			Idx300m:         m300.Index,
			Stops500m:       int64(m500.Stops),
			Routes500m:      int64(m500.Routes),
			Idx500m:         m500.Index,
		}
	}
	return rows
}
