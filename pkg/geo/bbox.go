package geo

import "fmt"

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// NewBoundingBox creates an empty bounding box that will be initialized by
// the first call to ExtendWithPoint.
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinLat: 91,
		MinLon: 181,
		MaxLat: -91,
		MaxLon: -181,
	}
}

// ExtendWithPoint grows the bounding box to include the given point.
func (b *BoundingBox) ExtendWithPoint(lat, lon float64) {
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	if lon < b.MinLon {
		b.MinLon = lon
	}
	if lon > b.MaxLon {
		b.MaxLon = lon
	}
}

// Contains reports whether the point lies within the bounding box.
func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Center returns the midpoint of the bounding box.
func (b *BoundingBox) Center() Location {
	return Location{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}

// QueryString renders the box in the left,bottom,right,top order the
// OpenStreetMap API expects for its bbox parameter.
func (b *BoundingBox) QueryString() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}
