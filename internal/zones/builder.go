package zones

import (
	"errors"
	"fmt"
	"time"

	h3 "github.com/uber/h3-go/v4"

	"github.com/cyclonewatch/stormtrack/internal/geo"
	"github.com/cyclonewatch/stormtrack/internal/model"
)

// ErrNoForecast is returned when Build is called with an empty forecast
// track: no zones are produced and existing zones are left untouched by
// the caller.
var ErrNoForecast = errors.New("zones: forecast track is empty")

const (
	warningBufferKm = 75.0
	watchBufferKm   = 50.0
	dissolveBufferKm = 100.0
	smoothIterations = 2
	simplifyToleranceDeg = 0.01

	warningHorizonHours = 24.0
	watchHorizonHours   = 48.0

	h3CullResolution = 3 // ~66 km average hexagon edge; coarse pre-filter only.
	h3CullRingSize   = 15 // generous ring radius: this is a cheap pre-filter, the precise test follows.
)

// Params bundles the zone builder's tunable coefficients, surfaced back on
// each Zone so downstream tuning does not require a code change.
type Params struct {
	WarningBufferKm  float64
	WatchBufferKm    float64
	DissolveBufferKm float64
}

// DefaultParams are the zone-builder's default buffer and horizon coefficients.
func DefaultParams() Params {
	return Params{
		WarningBufferKm:  warningBufferKm,
		WatchBufferKm:    watchBufferKm,
		DissolveBufferKm: dissolveBufferKm,
	}
}

func (p Params) asMap() map[string]float64 {
	return map[string]float64{
		"warning_buffer_km":  p.WarningBufferKm,
		"watch_buffer_km":    p.WatchBufferKm,
		"dissolve_buffer_km": p.DissolveBufferKm,
	}
}

// classification is the outcome of the TOFI walk for one coast segment.
type classification int

const (
	classExcluded classification = iota
	classWatch
	classWarning
)

// Build runs the full zone-builder algorithm for one storm's
// current forecast track against basin's coastline, returning the
// polygons to persist via internal/store.ReplaceZones. now is the
// generation timestamp; all validity windows are relative to it.
func Build(track []model.ForecastPoint, coast []Segment, now time.Time, params Params) ([]model.Zone, error) {
	if len(track) == 0 {
		return nil, ErrNoForecast
	}

	var warningBuffers, watchBuffers []geo.Ring

	for _, seg := range coast {
		class, err := classifySegment(seg, track, now)
		if err != nil {
			return nil, fmt.Errorf("classify segment %s: %w", seg.ID, err)
		}

		switch class {
		case classWarning:
			warningBuffers = append(warningBuffers,
				geo.BufferCircleKm(midpoint(seg), params.WarningBufferKm, 16),
				geo.BufferCircleKm(seg.Start, params.WarningBufferKm, 16),
				geo.BufferCircleKm(seg.End, params.WarningBufferKm, 16))
		case classWatch:
			watchBuffers = append(watchBuffers,
				geo.BufferCircleKm(midpoint(seg), params.WatchBufferKm, 16),
				geo.BufferCircleKm(seg.Start, params.WatchBufferKm, 16),
				geo.BufferCircleKm(seg.End, params.WatchBufferKm, 16))
		case classExcluded:
			// Excluded segments are not persisted.
		}
	}

	var out []model.Zone

	if zone, ok := buildZone(model.ZoneTypeWarning, warningBuffers, now, warningHorizonHours, params); ok {
		out = append(out, zone)
	}

	if zone, ok := buildZone(model.ZoneTypeWatch, watchBuffers, now, watchHorizonHours, params); ok {
		out = append(out, zone)
	}

	return out, nil
}

func buildZone(zoneType model.ZoneType, buffers []geo.Ring, now time.Time, horizonHours float64, params Params) (model.Zone, bool) {
	if len(buffers) == 0 {
		return model.Zone{}, false
	}

	union := unionConvexHull(buffers)

	dissolved := geo.ScaleRingKm(union, params.DissolveBufferKm)
	dissolved = geo.ScaleRingKm(dissolved, -params.DissolveBufferKm)

	smoothed := geo.ChaikinSmooth(dissolved, smoothIterations)
	simplified := geo.DouglasPeucker(smoothed, simplifyToleranceDeg)

	return model.Zone{
		Type:          zoneType,
		GeneratedAt:   now,
		ValidFrom:     now,
		ValidTo:       now.Add(time.Duration(horizonHours) * time.Hour),
		Geometry:      model.MultiPolygon{simplified},
		MethodVersion: 1,
		Parameters:    params.asMap(),
	}, true
}

// unionConvexHull approximates "union of classified buffers"
// as the convex hull of every buffer ring's vertices combined. The example
// pack carries no general polygon-union library; documented as an
// approximation in DESIGN.md.
func unionConvexHull(rings []geo.Ring) geo.Ring {
	var points []([2]float64)

	for _, ring := range rings {
		points = append(points, ring...)
	}

	return geo.ConvexHull(points)
}

func midpoint(seg Segment) geo.Point {
	return geo.Point{
		Lon: (seg.Start.Lon + seg.End.Lon) / 2,
		Lat: (seg.Start.Lat + seg.End.Lat) / 2,
	}
}

// classifySegment walks track in lead-time order, computing each point's
// wind-field disc (max quadrant 34-kt radius) and testing it against seg.
func classifySegment(seg Segment, track []model.ForecastPoint, now time.Time) (classification, error) {
	if !coarseMayIntersect(seg, track) {
		return classExcluded, nil
	}

	for i := 0; i < len(track); i++ {
		point := track[i]

		radiusKm := maxR34Km(point.Radii)
		if radiusKm <= 0 {
			continue
		}

		center := geo.Point{Lon: point.Lon, Lat: point.Lat}

		if geo.SegmentDiscIntersects(seg.Start, seg.End, center, radiusKm) {
			tofi := point.ValidAtUTC
			tofi = shiftForForwardSpeed(tofi, forwardSpeedKt(track, i))

			return classify(tofi, now), nil
		}
	}

	return classExcluded, nil
}

// maxR34Km returns the largest 34-kt quadrant radius across radii, in
// kilometers, or 0 if no quadrant reports a 34-kt extent.
func maxR34Km(radii []model.Radii) float64 {
	var maxNM float64

	for _, r := range radii {
		if r.R34 > maxNM {
			maxNM = r.R34
		}
	}

	return maxNM * geo.NauticalMileKm
}

// forwardSpeedKt derives the storm's translation speed at track[i] from
// the preceding track point, for the forward-speed TOFI shift.
// ForecastPoint carries no explicit motion-speed field, so speed is
// derived from consecutive positions instead.
func forwardSpeedKt(track []model.ForecastPoint, i int) float64 {
	if i == 0 {
		return 0
	}

	prev := track[i-1]
	cur := track[i]

	distKm := geo.DistanceKm(geo.Point{Lon: prev.Lon, Lat: prev.Lat}, geo.Point{Lon: cur.Lon, Lat: cur.Lat})
	hours := cur.ValidAtUTC.Sub(prev.ValidAtUTC).Hours()

	if hours <= 0 {
		return 0
	}

	kmh := distKm / hours

	return kmh / geo.NauticalMileKm
}

// shiftForForwardSpeed applies the "(1 - speed/15) * 3h" TOFI shift,
// clipped to +/-3h.
func shiftForForwardSpeed(tofi time.Time, speedKt float64) time.Time {
	shiftHours := (1 - speedKt/15) * 3

	if shiftHours > 3 {
		shiftHours = 3
	}

	if shiftHours < -3 {
		shiftHours = -3
	}

	return tofi.Add(time.Duration(shiftHours * float64(time.Hour)))
}

func classify(tofi, now time.Time) classification {
	hoursUntil := tofi.Sub(now).Hours()

	switch {
	case hoursUntil <= warningHorizonHours:
		return classWarning
	case hoursUntil <= watchHorizonHours:
		return classWatch
	default:
		return classExcluded
	}
}

// coarseMayIntersect performs a cheap H3-cell pre-filter: if none of the
// track's cells share a coarse H3 cell (within a generous ring radius)
// with the segment's endpoints, the precise per-point disc test is
// skipped entirely.
func coarseMayIntersect(seg Segment, track []model.ForecastPoint) bool {
	segCells := map[h3.Cell]bool{
		cellFor(seg.Start): true,
		cellFor(seg.End):   true,
	}

	expanded := make(map[h3.Cell]bool, len(segCells)*20)

	for cell := range segCells {
		ring, err := h3.GridDisk(cell, h3CullRingSize)
		if err != nil {
			// Culling is an optimization only; on error fall back to
			// "may intersect" so the precise test still runs.
			return true
		}

		for _, c := range ring {
			expanded[c] = true
		}
	}

	for _, point := range track {
		if expanded[cellFor(geo.Point{Lon: point.Lon, Lat: point.Lat})] {
			return true
		}
	}

	return false
}

func cellFor(p geo.Point) h3.Cell {
	return h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lon}, h3CullResolution)
}
