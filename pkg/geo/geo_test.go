package geo

import (
	"math"
	"testing"
)

// Well-known reference points used throughout the tests. The Trondheim pair
// bounds a short street segment; distances were verified against the
// standard haversine formulation.
var (
	trondheimA = Location{Latitude: 63.39981, Longitude: 10.29072}
	trondheimB = Location{Latitude: 63.40265, Longitude: 10.29426}

	london = Location{Latitude: 51.5074, Longitude: -0.1278}
	paris  = Location{Latitude: 48.8566, Longitude: 2.3522}
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
		tol                    float64
	}{
		{
			name: "coincident points",
			lat1: 63.4015, lon1: 10.2935,
			lat2: 63.4015, lon2: 10.2935,
			want: 0, tol: 1e-9,
		},
		{
			name: "london to paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			want: 343_550, tol: 1000,
		},
		{
			name: "one degree of latitude at equator",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			want: 111_195, tol: 50,
		},
		{
			name: "antipodal points are half the circumference",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 180,
			want: math.Pi * EarthRadius, tol: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if !almostEqual(got, tt.want, tt.tol) {
				t.Errorf("HaversineDistance() = %f, want %f (±%f)", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	d1 := Distance(trondheimA, trondheimB)
	d2 := Distance(trondheimB, trondheimA)
	if !almostEqual(d1, d2, 1e-6) {
		t.Errorf("Distance not symmetric: %f vs %f", d1, d2)
	}
	if d1 <= 0 {
		t.Errorf("Distance between distinct points = %f, want > 0", d1)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name     string
		from, to Location
		want     float64
		tol      float64
	}{
		{
			name: "due north",
			from: Location{Latitude: 0, Longitude: 0},
			to:   Location{Latitude: 10, Longitude: 0},
			want: 0, tol: 1e-6,
		},
		{
			name: "due east at equator",
			from: Location{Latitude: 0, Longitude: 0},
			to:   Location{Latitude: 0, Longitude: 10},
			want: 90, tol: 1e-6,
		},
		{
			name: "due south",
			from: Location{Latitude: 10, Longitude: 0},
			to:   Location{Latitude: 0, Longitude: 0},
			want: 180, tol: 1e-6,
		},
		{
			name: "due west at equator",
			from: Location{Latitude: 0, Longitude: 10},
			to:   Location{Latitude: 0, Longitude: 0},
			want: 270, tol: 1e-6,
		},
		{
			name: "coincident points yield zero",
			from: trondheimA,
			to:   trondheimA,
			want: 0, tol: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.from, tt.to)
			if !almostEqual(got, tt.want, tt.tol) && tt.tol > 0 {
				t.Errorf("Bearing() = %f, want %f", got, tt.want)
			}
			if tt.tol == 0 && got != tt.want {
				t.Errorf("Bearing() = %f, want exactly %f", got, tt.want)
			}
		})
	}
}

func TestBearingRange(t *testing.T) {
	// Bearing must stay in [0, 360) for arbitrary point pairs.
	points := []Location{
		{Latitude: 63.4, Longitude: 10.3},
		{Latitude: -33.9, Longitude: 151.2},
		{Latitude: 51.5, Longitude: -0.1},
		{Latitude: 0, Longitude: 179.9},
		{Latitude: 0, Longitude: -179.9},
		{Latitude: -89, Longitude: 45},
	}
	for _, from := range points {
		for _, to := range points {
			b := Bearing(from, to)
			if b < 0 || b >= 360 {
				t.Errorf("Bearing(%v, %v) = %f, want [0, 360)", from, to, b)
			}
		}
	}
}

func TestDestination(t *testing.T) {
	tests := []struct {
		name     string
		origin   Location
		bearing  float64
		distance float64
		want     Location
		tol      float64
	}{
		{
			name:    "north from equator",
			origin:  Location{Latitude: 0, Longitude: 0},
			bearing: 0, distance: 111_195,
			want: Location{Latitude: 1, Longitude: 0},
			tol:  0.001,
		},
		{
			name:    "east along equator",
			origin:  Location{Latitude: 0, Longitude: 0},
			bearing: 90, distance: 111_195,
			want: Location{Latitude: 0, Longitude: 1},
			tol:  0.001,
		},
		{
			name:    "zero distance stays put",
			origin:  trondheimA,
			bearing: 45, distance: 0,
			want: trondheimA,
			tol:  1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Destination(tt.origin, tt.bearing, tt.distance)
			if !almostEqual(got.Latitude, tt.want.Latitude, tt.tol) ||
				!almostEqual(got.Longitude, tt.want.Longitude, tt.tol) {
				t.Errorf("Destination() = %v, want %v (±%f)", got, tt.want, tt.tol)
			}
		})
	}
}

// TestDestinationRoundTrip travels from A toward B by the full distance and
// expects to land on B.
func TestDestinationRoundTrip(t *testing.T) {
	pairs := []struct {
		name     string
		from, to Location
	}{
		{"trondheim segment", trondheimA, trondheimB},
		{"london to paris", london, paris},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(tt.from, tt.to)
			b := Bearing(tt.from, tt.to)
			got := Destination(tt.from, b, d)

			if Distance(got, tt.to) > 1.0 {
				t.Errorf("round trip landed %f m from target (%v vs %v)",
					Distance(got, tt.to), got, tt.to)
			}
		})
	}
}

func TestDestinationLongitudeNormalized(t *testing.T) {
	// Crossing the antimeridian must wrap into [-180, 180).
	got := Destination(Location{Latitude: 0, Longitude: 179.5}, 90, 111_195)
	if got.Longitude < -180 || got.Longitude >= 180 {
		t.Errorf("Destination longitude = %f, want [-180, 180)", got.Longitude)
	}
	if got.Longitude > 0 {
		t.Errorf("Destination longitude = %f, want negative after wrapping east", got.Longitude)
	}
}

func TestAlongTrackDistance(t *testing.T) {
	start := Location{Latitude: 0, Longitude: 0}
	end := Location{Latitude: 0, Longitude: 1}
	segLen := Distance(start, end)

	tests := []struct {
		name  string
		point Location
		check func(t *testing.T, got float64)
	}{
		{
			name:  "point at start projects to zero",
			point: start,
			check: func(t *testing.T, got float64) {
				if !almostEqual(got, 0, 1e-6) {
					t.Errorf("along-track = %f, want 0", got)
				}
			},
		},
		{
			name:  "point at end projects to segment length",
			point: end,
			check: func(t *testing.T, got float64) {
				if !almostEqual(got, segLen, 1) {
					t.Errorf("along-track = %f, want %f", got, segLen)
				}
			},
		},
		{
			name:  "point behind start is negative",
			point: Location{Latitude: 0, Longitude: -0.5},
			check: func(t *testing.T, got float64) {
				if got >= 0 {
					t.Errorf("along-track = %f, want negative", got)
				}
			},
		},
		{
			name:  "point beyond end exceeds segment length",
			point: Location{Latitude: 0, Longitude: 1.5},
			check: func(t *testing.T, got float64) {
				if got <= segLen {
					t.Errorf("along-track = %f, want > %f", got, segLen)
				}
			},
		},
		{
			name:  "point off-track projects to midpoint",
			point: Location{Latitude: 0.1, Longitude: 0.5},
			check: func(t *testing.T, got float64) {
				if !almostEqual(got, segLen/2, segLen*0.01) {
					t.Errorf("along-track = %f, want ~%f", got, segLen/2)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlongTrackDistance(start, end, tt.point)
			if math.IsNaN(got) {
				t.Fatal("along-track distance is NaN")
			}
			tt.check(t, got)
		})
	}
}

func TestCrossTrackDistance(t *testing.T) {
	start := Location{Latitude: 0, Longitude: 0}
	end := Location{Latitude: 0, Longitude: 1}

	// A point directly on the path has zero cross-track distance.
	on := Location{Latitude: 0, Longitude: 0.5}
	if d := CrossTrackDistance(start, end, on); !almostEqual(d, 0, 1) {
		t.Errorf("cross-track for on-path point = %f, want ~0", d)
	}

	// Points either side of the path have opposite signs.
	north := CrossTrackDistance(start, end, Location{Latitude: 0.1, Longitude: 0.5})
	south := CrossTrackDistance(start, end, Location{Latitude: -0.1, Longitude: 0.5})
	if north*south >= 0 {
		t.Errorf("cross-track signs not opposite: north=%f south=%f", north, south)
	}
}

// TestTrondheimProjection reproduces the reference query used in the tool
// layer: a position between two street nodes should project strictly
// between them and be closer than either endpoint.
func TestTrondheimProjection(t *testing.T) {
	pos := Location{Latitude: 63.4015, Longitude: 10.2935}

	segLen := Distance(trondheimA, trondheimB)
	along := AlongTrackDistance(trondheimA, trondheimB, pos)

	if along <= 0 || along >= segLen {
		t.Fatalf("projection along = %f, want strictly inside (0, %f)", along, segLen)
	}

	projected := Destination(trondheimA, Bearing(trondheimA, trondheimB), along)
	dProj := Distance(pos, projected)

	if dA := Distance(pos, trondheimA); dProj >= dA {
		t.Errorf("projected distance %f not less than endpoint distance %f", dProj, dA)
	}
	if dB := Distance(pos, trondheimB); dProj >= dB {
		t.Errorf("projected distance %f not less than endpoint distance %f", dProj, dB)
	}
}
