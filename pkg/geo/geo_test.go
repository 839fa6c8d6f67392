package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKmPureLatitude(t *testing.T) {
	// A pure latitude delta is an exact great-circle arc along a
	// meridian: roughly 111.2km per degree.
	d := HaversineKm(Point{Lat: 35.0, Lng: 139.0}, Point{Lat: 36.0, Lng: 139.0})
	assert.InDelta(t, 111.2, d, 0.5)
}

func TestHaversineKmZeroDistance(t *testing.T) {
	p := Point{Lat: 35.681236, Lng: 139.767125}
	assert.Equal(t, 0.0, HaversineKm(p, p))
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := Point{Lat: 35.0, Lng: 139.0}
	b := Point{Lat: 34.5, Lng: 139.8}
	assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9)
}

func TestTravelMinutes(t *testing.T) {
	assert.Equal(t, 60.0, TravelMinutes(25))
	assert.Equal(t, 30.0, TravelMinutes(12.5))
	assert.Equal(t, 0.0, TravelMinutes(0))
}

func TestEuclidean(t *testing.T) {
	assert.Equal(t, 5.0, Euclidean(Point{Lat: 0, Lng: 0}, Point{Lat: 3, Lng: 4}))
}

func TestCentroidMeanFallsBackWhenEmpty(t *testing.T) {
	var c Centroid
	fallback := Point{Lat: 1, Lng: 2}
	assert.Equal(t, fallback, c.Mean(fallback))
}

func TestCentroidAccumulatesRunningMean(t *testing.T) {
	var c Centroid
	c.Add(Point{Lat: 0, Lng: 0})
	c.Add(Point{Lat: 2, Lng: 4})
	mean := c.Mean(Point{})
	assert.Equal(t, Point{Lat: 1, Lng: 2}, mean)

	c.Add(Point{Lat: 4, Lng: 2})
	mean = c.Mean(Point{})
	assert.InDelta(t, 2.0, mean.Lat, 1e-9)
	assert.InDelta(t, 2.0, mean.Lng, 1e-9)
}
