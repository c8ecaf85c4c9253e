// Package geo implements the WGS84 spherical-earth geodesy primitives the
// radii inference and zone-builder components need: great-circle distance,
// bearing, destination, interpolation, spherical mean, and metric buffering.
//
// Tolerances are those of a mean-radius spherical-earth model, matching the
// precision advisory-grade cone products use upstream; this is not a
// geodetic (ellipsoidal) implementation.
package geo

import "math"

// EarthRadiusKm is the mean radius used for all spherical-earth computations.
const EarthRadiusKm = 6371.0088

// NauticalMileKm is the length of one nautical mile in kilometers.
const NauticalMileKm = 1.852

// Point is a WGS84 coordinate, longitude then latitude, in degrees.
type Point struct {
	Lon float64
	Lat float64
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm returns the great-circle distance between a and b in
// kilometers, via the haversine formula.
func DistanceKm(a, b Point) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BearingDeg returns the initial great-circle bearing from a to b, in
// degrees clockwise from true north, in [0, 360).
func BearingDeg(a, b Point) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLon := toRad(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	theta := math.Atan2(y, x)

	return math.Mod(toDeg(theta)+360, 360)
}

// Destination returns the point reached by traveling distKm from origin
// along initial bearing bearingDeg, on the sphere.
func Destination(origin Point, bearingDeg, distKm float64) Point {
	angularDist := distKm / EarthRadiusKm
	lat1 := toRad(origin.Lat)
	lon1 := toRad(origin.Lon)
	brng := toRad(bearingDeg)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angularDist) +
		math.Cos(lat1)*math.Sin(angularDist)*math.Cos(brng))

	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angularDist)*math.Cos(lat1),
		math.Cos(angularDist)-math.Sin(lat1)*math.Sin(lat2))

	return Point{Lon: normalizeLon(toDeg(lon2)), Lat: toDeg(lat2)}
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}

	return lon - 180
}

// Interpolate returns the point a fraction t of the way along the
// great-circle arc from a to b (t=0 -> a, t=1 -> b), via spherical linear
// interpolation (slerp).
func Interpolate(a, b Point, t float64) Point {
	lat1, lon1 := toRad(a.Lat), toRad(a.Lon)
	lat2, lon2 := toRad(b.Lat), toRad(b.Lon)

	d := DistanceKm(a, b) / EarthRadiusKm
	if d == 0 {
		return a
	}

	sinD := math.Sin(d)
	A := math.Sin((1-t)*d) / sinD
	B := math.Sin(t*d) / sinD

	x := A*math.Cos(lat1)*math.Cos(lon1) + B*math.Cos(lat2)*math.Cos(lon2)
	y := A*math.Cos(lat1)*math.Sin(lon1) + B*math.Cos(lat2)*math.Sin(lon2)
	z := A*math.Sin(lat1) + B*math.Sin(lat2)

	lat := math.Atan2(z, math.Sqrt(x*x+y*y))
	lon := math.Atan2(y, x)

	return Point{Lon: toDeg(lon), Lat: toDeg(lat)}
}

// SphericalMean returns the geometric mean position of points, by averaging
// their unit-sphere Cartesian vectors and renormalizing. The A-Deck ensemble
// mean in internal/adeck does not call it; it averages longitude-rotated
// member positions instead.
func SphericalMean(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}

	var x, y, z float64

	for _, p := range points {
		lat, lon := toRad(p.Lat), toRad(p.Lon)
		x += math.Cos(lat) * math.Cos(lon)
		y += math.Cos(lat) * math.Sin(lon)
		z += math.Sin(lat)
	}

	n := float64(len(points))
	x /= n
	y /= n
	z /= n

	hyp := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, hyp)
	lon := math.Atan2(y, x)

	return Point{Lon: toDeg(lon), Lat: toDeg(lat)}, true
}

// SpreadDeg returns the mean great-circle distance in kilometers from
// center to each of points, a simple ensemble-spread statistic.
func SpreadDeg(center Point, points []Point) float64 {
	if len(points) == 0 {
		return 0
	}

	var sum float64
	for _, p := range points {
		sum += DistanceKm(center, p)
	}

	return sum / float64(len(points))
}
