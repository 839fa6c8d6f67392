// Package geo holds the distance and travel-time primitives shared by
// store selection and route optimization.
package geo

import "math"

// AverageSpeedKmh is the single travel-time constant used across the
// dispatch pipeline. 25 km/h models in-city buyer travel including stops
// and turns, not highway cruising speed.
const AverageSpeedKmh = 25.0

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// TravelMinutes converts a distance in kilometers to travel time in
// minutes at AverageSpeedKmh.
func TravelMinutes(km float64) float64 {
	return km / AverageSpeedKmh * 60
}

// Euclidean returns the plain lat/lng-space distance between two points.
// At intra-city scale the curvature error against Haversine is
// negligible, and this is cheap enough to call per (buyer, item)
// candidate pair during staff assignment.
func Euclidean(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// Centroid accumulates a running mean coordinate via (sum, count) so
// buyer affinity centroids update in O(1) per assignment instead of
// re-averaging from scratch.
type Centroid struct {
	SumLat float64
	SumLng float64
	Count  int
}

// Add folds a point into the running mean.
func (c *Centroid) Add(p Point) {
	c.SumLat += p.Lat
	c.SumLng += p.Lng
	c.Count++
}

// Mean returns the current centroid, or fallback if no points have been
// added yet.
func (c Centroid) Mean(fallback Point) Point {
	if c.Count == 0 {
		return fallback
	}
	return Point{Lat: c.SumLat / float64(c.Count), Lng: c.SumLng / float64(c.Count)}
}
