package geo

import "math"

// Ring is a closed sequence of [lon, lat] vertex pairs in degrees. It is an
// alias of the unnamed slice type, so a Ring is assignable to model.Ring.
type Ring = [][2]float64

// BufferCircleKm returns a regular polygon ring of segments vertices
// approximating a disc of radius radiusKm centered at center, used both to
// approximate cone-of-uncertainty discs and as the kernel for morphological
// buffering of zone rings.
func BufferCircleKm(center Point, radiusKm float64, segments int) Ring {
	if segments < 8 {
		segments = 8
	}

	ring := make(Ring, 0, segments+1)

	for i := 0; i <= segments; i++ {
		bearing := float64(i) * 360 / float64(segments)
		p := Destination(center, bearing, radiusKm)
		ring = append(ring, [2]float64{p.Lon, p.Lat})
	}

	return ring
}

// ChaikinSmooth applies Chaikin's corner-cutting subdivision iterations
// times to a closed ring, rounding the sharp joints the buffer/dissolve
// step leaves behind.
func ChaikinSmooth(ring Ring, iterations int) Ring {
	if len(ring) < 3 {
		return ring
	}

	current := ring

	for iter := 0; iter < iterations; iter++ {
		next := make(Ring, 0, len(current)*2)
		n := len(current)

		for i := 0; i < n; i++ {
			p0 := current[i]
			p1 := current[(i+1)%n]

			q := [2]float64{
				0.75*p0[0] + 0.25*p1[0],
				0.75*p0[1] + 0.25*p1[1],
			}
			r := [2]float64{
				0.25*p0[0] + 0.75*p1[0],
				0.25*p0[1] + 0.75*p1[1],
			}

			next = append(next, q, r)
		}

		current = next
	}

	return current
}

// DouglasPeucker simplifies ring to within toleranceDeg (in degrees, applied
// in the plane formed by lon/lat as-is — adequate at the scale of a single
// storm's cone), preserving the ring's closure.
func DouglasPeucker(ring Ring, toleranceDeg float64) Ring {
	if len(ring) < 3 {
		return ring
	}

	closed := ring[0] == ring[len(ring)-1]

	open := ring
	if closed {
		open = ring[:len(ring)-1]
	}

	kept := douglasPeuckerOpen(open, toleranceDeg)

	if closed {
		kept = append(kept, kept[0])
	}

	return kept
}

func douglasPeuckerOpen(points Ring, tolerance float64) Ring {
	if len(points) < 3 {
		out := make(Ring, len(points))
		copy(out, points)

		return out
	}

	maxDist := -1.0
	maxIdx := 0

	for i := 1; i < len(points)-1; i++ {
		d := perpendicularDistance(points[i], points[0], points[len(points)-1])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return Ring{points[0], points[len(points)-1]}
	}

	left := douglasPeuckerOpen(points[:maxIdx+1], tolerance)
	right := douglasPeuckerOpen(points[maxIdx:], tolerance)

	return append(left[:len(left)-1], right...)
}

func perpendicularDistance(p, a, b [2]float64) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]

	if dx == 0 && dy == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}

	num := math.Abs(dy*p[0] - dx*p[1] + b[0]*a[1] - b[1]*a[0])
	den := math.Hypot(dx, dy)

	return num / den
}

// SegmentDiscIntersects reports whether the great-circle segment from a to
// b passes within radiusKm of center, by sampling the segment at a
// resolution fine enough relative to radiusKm. This is the core primitive
// of the time-of-first-intersection test: the zone builder passes a coast
// segment as a-b and a forecast track point, with its wind radius, as the
// disc's center.
func SegmentDiscIntersects(a, b, center Point, radiusKm float64) bool {
	segLen := DistanceKm(a, b)
	if segLen == 0 {
		return DistanceKm(a, center) <= radiusKm
	}

	steps := int(math.Ceil(segLen / (radiusKm / 4)))
	if steps < 1 {
		steps = 1
	}

	if steps > 256 {
		steps = 256
	}

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := Interpolate(a, b, t)

		if DistanceKm(p, center) <= radiusKm {
			return true
		}
	}

	return false
}
