package geo

import "testing"

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.ExtendWithPoint(63.39981, 10.29072)
	bbox.ExtendWithPoint(63.40265, 10.29426)

	if bbox.MinLat != 63.39981 || bbox.MaxLat != 63.40265 {
		t.Errorf("lat range = [%f, %f], want [63.39981, 63.40265]", bbox.MinLat, bbox.MaxLat)
	}
	if bbox.MinLon != 10.29072 || bbox.MaxLon != 10.29426 {
		t.Errorf("lon range = [%f, %f], want [10.29072, 10.29426]", bbox.MinLon, bbox.MaxLon)
	}
}

func TestBoundingBoxSinglePoint(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.ExtendWithPoint(63.4, 10.3)

	if bbox.MinLat != bbox.MaxLat || bbox.MinLon != bbox.MaxLon {
		t.Errorf("single-point box should be degenerate, got %+v", bbox)
	}
	if !bbox.Contains(63.4, 10.3) {
		t.Error("box does not contain its only point")
	}
}

func TestBoundingBoxContains(t *testing.T) {
	bbox := &BoundingBox{MinLat: 63.39, MinLon: 10.29, MaxLat: 63.41, MaxLon: 10.30}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"inside", 63.40, 10.295, true},
		{"on min corner", 63.39, 10.29, true},
		{"on max corner", 63.41, 10.30, true},
		{"north of box", 63.42, 10.295, false},
		{"west of box", 63.40, 10.28, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bbox.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%f, %f) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestBoundingBoxCenter(t *testing.T) {
	bbox := &BoundingBox{MinLat: 63.39, MinLon: 10.29, MaxLat: 63.41, MaxLon: 10.31}
	c := bbox.Center()
	if !almostEqual(c.Latitude, 63.40, 1e-9) || !almostEqual(c.Longitude, 10.30, 1e-9) {
		t.Errorf("Center() = %v, want (63.40, 10.30)", c)
	}
}

func TestBoundingBoxQueryString(t *testing.T) {
	// OSM map endpoint takes left,bottom,right,top.
	bbox := &BoundingBox{MinLat: 63.39981, MinLon: 10.29072, MaxLat: 63.40265, MaxLon: 10.29426}
	want := "10.29072,63.39981,10.29426,63.40265"
	if got := bbox.QueryString(); got != want {
		t.Errorf("QueryString() = %q, want %q", got, want)
	}
}
