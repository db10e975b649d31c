package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultWalkingSpeed is the walking speed of the reference configuration, in km/h.
const DefaultWalkingSpeed = 4.0

// Point is an identified location. ID is the caller's identifier (a stop ID,
// a node ID, an index); geo never interprets it.
type Point struct {
	ID  int
	Lat float64
	Lng float64
}

// Loc returns the point in orb order ({lng, lat}).
func (p Point) Loc() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Valid reports whether the coordinates are finite and within WGS-84 ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// GeodesicDistance returns the great-circle distance between a and b in km.
func GeodesicDistance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / 1000
}

// TaxicabDistance returns the shorter of the two right-angle geodesic paths
// between a and b, in km.
func TaxicabDistance(a, b orb.Point) float64 {
	// corners share a's latitude with b's longitude, and the reverse
	c1 := orb.Point{b[0], a[1]}
	c2 := orb.Point{a[0], b[1]}
	return math.Min(
		GeodesicDistance(a, c1)+GeodesicDistance(c1, b),
		GeodesicDistance(a, c2)+GeodesicDistance(c2, b),
	)
}

// WalkFactor returns minutes per kilometre at the given speed in km/h.
func WalkFactor(speedKMH float64) float64 {
	return 60 / speedKMH
}

// WalkMinutes converts a distance in km to minutes at the given speed in km/h.
func WalkMinutes(km, speedKMH float64) float64 {
	return km * WalkFactor(speedKMH)
}

// Rect returns the axis-aligned bounding rectangle spanned by a and b.
func Rect(a, b orb.Point) orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Min(a[0], b[0]), math.Min(a[1], b[1])},
		Max: orb.Point{math.Max(a[0], b[0]), math.Max(a[1], b[1])},
	}
}
