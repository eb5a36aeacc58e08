// Package geo provides spherical geometry primitives for working with
// geographic coordinates.
//
// All functions treat the Earth as a sphere of mean radius EarthRadius.
// Inputs and outputs are in decimal degrees (WGS84); trigonometry is done
// in radians internally. Results from asin/acos are clamped so that
// floating-point drift never produces NaN.
package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Location represents a geographic coordinate in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// toRadians converts degrees to radians
func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// toDegrees converts radians to degrees
func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// clamp1 restricts v to [-1, 1] so it is a safe argument for asin/acos.
func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// HaversineDistance calculates the great-circle distance in meters between
// two points given as latitude/longitude pairs in decimal degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Distance returns the great-circle distance in meters between two locations.
func Distance(from, to Location) float64 {
	return HaversineDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// Bearing returns the initial bearing in degrees [0, 360) travelling from
// one location toward another along the great circle. Coincident points
// yield a bearing of 0.
func Bearing(from, to Location) float64 {
	if from == to {
		return 0
	}

	phi1 := toRadians(from.Latitude)
	phi2 := toRadians(to.Latitude)
	dLambda := toRadians(to.Longitude - from.Longitude)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x)

	return math.Mod(toDegrees(theta)+360, 360)
}

// Destination returns the location reached by travelling the given bearing
// (degrees) and distance (meters) from origin along a great circle.
func Destination(origin Location, bearingDeg, distanceM float64) Location {
	phi1 := toRadians(origin.Latitude)
	lambda1 := toRadians(origin.Longitude)
	theta := toRadians(bearingDeg)
	delta := distanceM / EarthRadius

	phi2 := math.Asin(clamp1(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))

	return Location{
		Latitude:  toDegrees(phi2),
		Longitude: math.Mod(toDegrees(lambda2)+540, 360) - 180,
	}
}

// AlongTrackDistance returns the signed distance in meters from start to the
// great-circle projection of point onto the path from start to end.
//
// The result is negative when the projection falls behind start and exceeds
// Distance(start, end) when it falls beyond end, so callers can clamp the
// projection to the segment.
func AlongTrackDistance(start, end, point Location) float64 {
	// Angular distance from start to the point.
	delta13 := Distance(start, point) / EarthRadius

	theta13 := toRadians(Bearing(start, point))
	theta12 := toRadians(Bearing(start, end))

	// Cross-track angular distance, then along-track from its cosine.
	deltaXt := math.Asin(clamp1(math.Sin(delta13) * math.Sin(theta13-theta12)))
	deltaAt := math.Acos(clamp1(math.Cos(delta13) / math.Cos(deltaXt)))

	sign := 1.0
	if math.Cos(theta13-theta12) < 0 {
		sign = -1
	}

	return sign * deltaAt * EarthRadius
}

// CrossTrackDistance returns the perpendicular distance in meters from point
// to the great-circle path from start to end. Negative values lie to the
// left of the path.
func CrossTrackDistance(start, end, point Location) float64 {
	delta13 := Distance(start, point) / EarthRadius
	theta13 := toRadians(Bearing(start, point))
	theta12 := toRadians(Bearing(start, end))

	return math.Asin(clamp1(math.Sin(delta13)*math.Sin(theta13-theta12))) * EarthRadius
}
