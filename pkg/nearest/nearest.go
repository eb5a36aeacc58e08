// Package nearest finds the closest point on an OSM way network for a
// query position.
//
// The engine is a pure function of an immutable document and a position:
// it holds no state, performs no I/O, and is safe for concurrent use over
// one document. The search is a full scan over every way and every segment;
// correctness comes first and there is deliberately no spatial index.
package nearest

import (
	"errors"
	"math"

	"github.com/osmtools/nearway/pkg/geo"
	"github.com/osmtools/nearway/pkg/osm"
)

var (
	// ErrNoWays is returned when the document contains no ways to search.
	ErrNoWays = errors.New("document has no ways")

	// ErrNoPosition is returned when no query position was supplied.
	ErrNoPosition = errors.New("no query position set")

	// ErrEmptyWay is returned for a way whose node list is empty; such a
	// way has no defined distance.
	ErrEmptyWay = errors.New("way has no nodes")

	// ErrNotComparable is returned when a distance comparison encounters
	// NaN. The geo package clamps its trigonometry so this indicates a
	// programming or data fault, never a value to rank arbitrarily.
	ErrNotComparable = errors.New("distance is not comparable (NaN)")
)

// Result holds the nearest point on one way for a query position.
// When Err is non-nil the way's distance could not be computed and the
// other fields are zero; callers decide whether to skip the way or halt.
type Result struct {
	Way      *osm.Way     `json:"way"`
	Point    geo.Location `json:"point"`
	Distance float64      `json:"distance"`
	Err      error        `json:"-"`
}

// WayNearestPoint computes the closest point on a single way to pos,
// along with its distance in meters.
//
// Consecutive node pairs are treated as great-circle segments. The
// projection of pos onto each segment is clamped to the segment's
// endpoints, so the result is never worse than the nearest node. A way
// with a single node degrades to plain point-to-point distance; a way
// with no nodes yields ErrEmptyWay.
func WayNearestPoint(doc *osm.Document, way *osm.Way, pos geo.Location) (geo.Location, float64, error) {
	line, err := doc.WayLine(way)
	if err != nil {
		return geo.Location{}, 0, err
	}

	switch len(line) {
	case 0:
		return geo.Location{}, 0, ErrEmptyWay
	case 1:
		d := geo.Distance(pos, line[0])
		if math.IsNaN(d) {
			return geo.Location{}, 0, ErrNotComparable
		}
		return line[0], d, nil
	}

	best := geo.Location{}
	bestDist := math.Inf(1)

	for i := 0; i < len(line)-1; i++ {
		line1, line2 := line[i], line[i+1]

		length := geo.Distance(line1, line2)
		along := geo.AlongTrackDistance(line1, line2, pos)

		// Clamp the projection to the segment.
		var candidate geo.Location
		switch {
		case along < 0:
			candidate = line1
		case along > length:
			candidate = line2
		default:
			candidate = geo.Destination(line1, geo.Bearing(line1, line2), along)
		}

		d := geo.Distance(pos, candidate)
		if math.IsNaN(d) {
			return geo.Location{}, 0, ErrNotComparable
		}

		// Strictly-less keeps the first segment on ties.
		if d < bestDist {
			best = candidate
			bestDist = d
		}
	}

	return best, bestDist, nil
}

// Points computes the nearest point on every way in the document for pos,
// in document way order. Per-way failures (dangling node references, empty
// ways) are reported in the Result's Err field so one bad way does not
// lose results already computed for the others.
func Points(doc *osm.Document, pos *geo.Location) ([]Result, error) {
	if pos == nil {
		return nil, ErrNoPosition
	}

	results := make([]Result, 0, len(doc.Ways))
	for i := range doc.Ways {
		way := &doc.Ways[i]

		point, dist, err := WayNearestPoint(doc, way, *pos)
		if err != nil {
			results = append(results, Result{Way: way, Err: err})
			continue
		}
		results = append(results, Result{Way: way, Point: point, Distance: dist})
	}

	return results, nil
}

// Nearest returns the way closest to pos along with the nearest point on
// it. Ways whose distance could not be computed are skipped; if no way is
// comparable the first per-way error is returned. Ties keep the first way
// in document order.
func Nearest(doc *osm.Document, pos *geo.Location) (Result, error) {
	if len(doc.Ways) == 0 {
		return Result{}, ErrNoWays
	}

	results, err := Points(doc, pos)
	if err != nil {
		return Result{}, err
	}

	var best *Result
	var firstErr error
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		if math.IsNaN(r.Distance) {
			return Result{}, ErrNotComparable
		}
		if best == nil || r.Distance < best.Distance {
			best = r
		}
	}

	if best == nil {
		return Result{}, firstErr
	}
	return *best, nil
}
