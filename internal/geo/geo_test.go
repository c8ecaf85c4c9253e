package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyclonewatch/stormtrack/internal/geo"
)

func TestDistanceKm_KnownPair(t *testing.T) {
	t.Parallel()

	miami := geo.Point{Lon: -80.19, Lat: 25.76}
	nassau := geo.Point{Lon: -77.34, Lat: 25.03}

	d := geo.DistanceKm(miami, nassau)
	assert.InDelta(t, 290, d, 20)
}

func TestDestination_RoundTripsBearing(t *testing.T) {
	t.Parallel()

	origin := geo.Point{Lon: -60, Lat: 15}
	dest := geo.Destination(origin, 90, 100)

	back := geo.BearingDeg(dest, origin)
	assert.InDelta(t, 270, back, 1)
}

func TestSphericalMean_SinglePointIsIdentity(t *testing.T) {
	t.Parallel()

	p := geo.Point{Lon: -70, Lat: 20}

	mean, ok := geo.SphericalMean([]geo.Point{p})
	assert.True(t, ok)
	assert.InDelta(t, p.Lon, mean.Lon, 1e-6)
	assert.InDelta(t, p.Lat, mean.Lat, 1e-6)
}

func TestSphericalMean_Empty(t *testing.T) {
	t.Parallel()

	_, ok := geo.SphericalMean(nil)
	assert.False(t, ok)
}

func TestInterpolate_Midpoint(t *testing.T) {
	t.Parallel()

	a := geo.Point{Lon: -60, Lat: 10}
	b := geo.Point{Lon: -60, Lat: 20}

	mid := geo.Interpolate(a, b, 0.5)
	assert.InDelta(t, 15, mid.Lat, 0.01)
}

func TestSegmentDiscIntersects(t *testing.T) {
	t.Parallel()

	a := geo.Point{Lon: -70, Lat: 20}
	b := geo.Point{Lon: -65, Lat: 22}
	center := geo.Point{Lon: -67.5, Lat: 21}

	assert.True(t, geo.SegmentDiscIntersects(a, b, center, 50))
	assert.False(t, geo.SegmentDiscIntersects(a, b, geo.Point{Lon: 0, Lat: 0}, 50))
}

func TestChaikinSmooth_PreservesPointCountGrowth(t *testing.T) {
	t.Parallel()

	ring := geo.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	smoothed := geo.ChaikinSmooth(ring, 1)

	assert.Equal(t, len(ring)*2, len(smoothed))
}

func TestDouglasPeucker_CollapsesColinearPoints(t *testing.T) {
	t.Parallel()

	ring := geo.Ring{{0, 0}, {0.5, 0.0001}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	simplified := geo.DouglasPeucker(ring, 0.01)

	assert.Less(t, len(simplified), len(ring))
	assert.Equal(t, simplified[0], simplified[len(simplified)-1])
}

func TestBufferCircleKm_ProducesClosedRing(t *testing.T) {
	t.Parallel()

	ring := geo.BufferCircleKm(geo.Point{Lon: -60, Lat: 15}, 50, 16)
	assert.Equal(t, ring[0], ring[len(ring)-1])

	for _, pt := range ring {
		d := geo.DistanceKm(geo.Point{Lon: -60, Lat: 15}, geo.Point{Lon: pt[0], Lat: pt[1]})
		assert.InDelta(t, 50, d, 0.5)
	}
}
