// Package geo provides the distance primitives used to weight walking links.
//
// # Distances
//
// [GeodesicDistance] is the great-circle distance between two points on a
// sphere with [orb.EarthRadius], computed with the haversine formula from
// github.com/paulmach/orb/geo. [TaxicabDistance] approximates walking along a
// rectilinear street grid: it is the shorter of the two L-shaped paths that
// first follow a parallel and then a meridian, or the other way around. By the
// triangle inequality it is never shorter than the geodesic distance.
//
// All distances are in kilometres.
//
// # Coordinates
//
// Points follow the orb convention of {longitude, latitude}. Use [Point.Loc]
// to convert a record with separate Lat and Lng fields.
//
// # Walking Time
//
// [WalkFactor] turns a walking speed in km/h into minutes per kilometre, so a
// link weight is simply distance * factor:
//
//	factor := geo.WalkFactor(geo.DefaultWalkingSpeed) // 15 min/km
//	minutes := geo.TaxicabDistance(a, b) * factor
package geo
