package osm

import (
	"fmt"

	"github.com/osmtools/nearway/pkg/geo"
)

const (
	// APIBaseURL is the base URL of the OpenStreetMap API.
	APIBaseURL = "https://www.openstreetmap.org/api/0.6"

	// UserAgent identifies nearway to the OSM API (required by the usage policy).
	UserAgent = "nearway/0.1.0"

	// EarthRadius in meters, re-exported from the geo package.
	EarthRadius = geo.EarthRadius
)

// ValidateCoords validates latitude and longitude values.
// Returns an error if the coordinates are invalid.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}
