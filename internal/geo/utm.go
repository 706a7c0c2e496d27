// Package geo projects geographic coordinates into the metric plane used for
// buffer and distance computations. Station geometries ship in EPSG:32632
// (UTM zone 32N); transit stop coordinates arrive as WGS84 lon/lat and must be
// projected into the same CRS before any distance comparison.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// TrentoZone is the UTM zone covering the study area.
const TrentoZone = 32

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1.0 / 298.257223563
)

const (
	utmScale        = 0.9996
	utmFalseEasting = 500000.0
)

// ProjectUTM converts a WGS84 lon/lat point to UTM easting/northing (meters)
// for the given zone, northern hemisphere. Classic transverse Mercator series
// expansion; accurate to well under a meter inside the zone.
func ProjectUTM(p orb.Point, zone int) orb.Point {
	lon := p.Lon() * math.Pi / 180
	lat := p.Lat() * math.Pi / 180
	lon0 := float64(zone*6-183) * math.Pi / 180

	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)

	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := cosLat * (lon - lon0)

	m := wgs84A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))

	easting := utmFalseEasting + utmScale*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120)

	northing := utmScale * (m + n*tanLat*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))

	return orb.Point{easting, northing}
}

// UnprojectUTM converts a UTM easting/northing point (meters, northern
// hemisphere) back to WGS84 lon/lat for the given zone. Inverse of ProjectUTM
// via the standard footpoint-latitude series.
func UnprojectUTM(p orb.Point, zone int) orb.Point {
	x := p[0] - utmFalseEasting
	y := p[1]
	lon0 := float64(zone*6-183) * math.Pi / 180

	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	m := y / utmScale
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmScale)

	lat := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lon := lon0 + (d-
		(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120)/cosPhi1

	return orb.Point{lon * 180 / math.Pi, lat * 180 / math.Pi}
}
