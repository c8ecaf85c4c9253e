package model

import "time"

// ZoneType is the persisted zone category. Segments classified "excluded"
// by the zone builder (TOFI > 48h) are never persisted, so only these two
// values are ever stored.
type ZoneType string

// Recognized zone types.
const (
	ZoneTypeWarning ZoneType = "warning"
	ZoneTypeWatch   ZoneType = "watch"
)

// Ring is one closed ring of WGS84 lon/lat pairs, the building block of a
// MultiPolygon, expressed library-agnostically so the persistence boundary can translate
// to GeoJSON or a PostGIS geometry without the domain importing either.
type Ring [][2]float64

// MultiPolygon is one or more disjoint Rings composing a single zone's
// geometry, a GeoJSON-compatible internal representation.
type MultiPolygon []Ring

// Zone is one watch or warning polygon computed for a storm's current
// forecast track.
type Zone struct {
	ID          int64
	StormID     int64
	Type        ZoneType
	GeneratedAt time.Time
	ValidFrom   time.Time
	ValidTo     time.Time
	Geometry    MultiPolygon
	MethodVersion int
	Parameters  map[string]float64 // Buffer distances actually used to build this zone; radii-inference coefficients are not included.
}
