package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/osmtools/nearway/pkg/core"
	"github.com/osmtools/nearway/pkg/geo"
	"github.com/osmtools/nearway/pkg/monitoring"
	"github.com/osmtools/nearway/pkg/nearest"
	"github.com/osmtools/nearway/pkg/osm"
	"github.com/osmtools/nearway/pkg/tracing"
)

// resultCacheSize bounds the LRU of rendered nearest-way results.
const resultCacheSize = 256

var (
	mapClient     *osm.Client
	mapClientOnce sync.Once

	resultCache     *lru.Cache[string, *NearestWayOutput]
	resultCacheOnce sync.Once
)

// MapClient returns the shared OSM API client used by the tools.
func MapClient() *osm.Client {
	mapClientOnce.Do(func() {
		if mapClient == nil {
			mapClient = osm.NewClient()
		}
	})
	return mapClient
}

// SetMapClient overrides the shared OSM API client, mainly for tests.
func SetMapClient(c *osm.Client) {
	mapClient = c
	mapClientOnce.Do(func() {})
}

func getResultCache() *lru.Cache[string, *NearestWayOutput] {
	resultCacheOnce.Do(func() {
		// Size is fixed; err is only possible for sizes < 1.
		resultCache, _ = lru.New[string, *NearestWayOutput](resultCacheSize)
	})
	return resultCache
}

// WayView is the rendered form of a way in tool output. Tags are rendered
// as "key = value" lines; Distance is present only when a query position
// was supplied.
type WayView struct {
	ID           int64         `json:"id"`
	Tags         []string      `json:"tags,omitempty"`
	Distance     *float64      `json:"distance,omitempty"`
	DistanceText string        `json:"distance_text,omitempty"`
	Point        *geo.Location `json:"nearest_point,omitempty"`
	Polyline     string        `json:"polyline,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// renderWay builds the WayView for a way, optionally decorated with a
// nearest-point result.
func renderWay(doc *osm.Document, way *osm.Way, res *nearest.Result) WayView {
	view := WayView{ID: way.ID}
	for _, tag := range way.Tags {
		view.Tags = append(view.Tags, fmt.Sprintf("%s = %s", tag.Key, tag.Value))
	}

	if line, err := doc.WayLine(way); err == nil {
		view.Polyline = core.EncodePolyline(line)
	}

	if res != nil {
		if res.Err != nil {
			view.Error = res.Err.Error()
		} else {
			d := res.Distance
			p := res.Point
			view.Distance = &d
			view.DistanceText = fmt.Sprintf("Distance = %v", d)
			view.Point = &p
		}
	}

	return view
}

// toolErrorResult maps engine errors to structured MCP error results.
func toolErrorResult(err error) *mcp.CallToolResult {
	var missing *osm.MissingNodeError
	switch {
	case errors.Is(err, nearest.ErrNoWays):
		return core.NewError(core.ErrNoWays, "the map document contains no ways").
			WithGuidance("Fetch a larger bounding box or one that covers a road network.").
			ToMCPResult()
	case errors.Is(err, nearest.ErrNoPosition):
		return core.NewError(core.ErrNoPosition, "no query position was supplied").
			WithGuidance("Provide a position as latitude/longitude or a coordinate string.").
			ToMCPResult()
	case errors.Is(err, nearest.ErrNotComparable):
		return core.NewError(core.ErrNotComparable, "distance comparison encountered a non-comparable value").
			ToMCPResult()
	case errors.As(err, &missing):
		return core.NewError(core.ErrMissingNodeRef, missing.Error()).
			WithGuidance("The fetched document is incomplete. Refetch the bounding box.").
			ToMCPResult()
	default:
		return core.NewError(core.ErrInternalError, err.Error()).ToMCPResult()
	}
}

// FetchMapInput defines the input parameters for fetching a map document
type FetchMapInput struct {
	BBox geo.BoundingBox `json:"bbox"`
}

// FetchMapOutput summarizes a fetched map document
type FetchMapOutput struct {
	BBox  string `json:"bbox"`
	Nodes int    `json:"nodes"`
	Ways  int    `json:"ways"`
}

// FetchMapTool returns a tool definition for fetching OSM map data
func FetchMapTool() mcp.Tool {
	return mcp.NewTool("fetch_map",
		mcp.WithDescription("Fetch the OpenStreetMap road/path network inside a bounding box and cache it for nearest-way queries"),
		mcp.WithObject("bbox",
			mcp.Required(),
			mcp.Description("Bounding box as {minLat, minLon, maxLat, maxLon}"),
		),
	)
}

// HandleFetchMap implements map fetching
func HandleFetchMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "fetch_map")

	input, errResult, err := InputParser[FetchMapInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if errResult := validateBBox(&input.BBox); errResult != nil {
		return errResult, nil
	}

	doc, err := MapClient().FetchMap(ctx, &input.BBox)
	if err != nil {
		logger.Error("map fetch failed", "error", err)
		return core.NewError(core.ErrServiceUnavailable, fmt.Sprintf("fetching OSM map failed: %v", err)).
			WithGuidance("Check the bounding box and try again; the OSM API limits request size and rate.").
			ToMCPResult(), nil
	}

	output := FetchMapOutput{
		BBox:  input.BBox.QueryString(),
		Nodes: len(doc.Nodes),
		Ways:  len(doc.Ways),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// validateBBox checks bounding box coordinates and orientation.
func validateBBox(bbox *geo.BoundingBox) *mcp.CallToolResult {
	if err := osm.ValidateCoords(bbox.MinLat, bbox.MinLon); err != nil {
		return core.NewValidationError(core.ErrInvalidBBox, err.Error()).ToMCPResult()
	}
	if err := osm.ValidateCoords(bbox.MaxLat, bbox.MaxLon); err != nil {
		return core.NewValidationError(core.ErrInvalidBBox, err.Error()).ToMCPResult()
	}
	if bbox.MinLat >= bbox.MaxLat || bbox.MinLon >= bbox.MaxLon {
		return core.NewValidationError(core.ErrInvalidBBox, "bounding box min must be less than max").ToMCPResult()
	}
	return nil
}

// NearestWayInput defines the input parameters for a nearest-way query
type NearestWayInput struct {
	BBox      geo.BoundingBox `json:"bbox"`
	Position  string          `json:"position,omitempty"`
	Latitude  float64         `json:"latitude,omitempty"`
	Longitude float64         `json:"longitude,omitempty"`
}

// NearestWayOutput defines the output for a nearest-way query
type NearestWayOutput struct {
	Way      WayView      `json:"way"`
	Distance float64      `json:"distance"`
	Point    geo.Location `json:"point"`
}

// NearestWayTool returns a tool definition for finding the nearest way
func NearestWayTool() mcp.Tool {
	return mcp.NewTool("nearest_way",
		mcp.WithDescription("Find the way (road/path) nearest to a position, with the projected point on it and the distance in meters. Position accepts decimal degrees, DMS or MGRS."),
		mcp.WithObject("bbox",
			mcp.Required(),
			mcp.Description("Bounding box to search, as {minLat, minLon, maxLat, maxLon}"),
		),
		mcp.WithString("position",
			mcp.Description("Query position as a coordinate string (e.g. \"63.4015, 10.2935\")"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Query position latitude (alternative to position)"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Query position longitude (alternative to position)"),
		),
	)
}

// HandleNearestWay implements the nearest-way query
func HandleNearestWay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "nearest_way")

	input, errResult, err := InputParser[NearestWayInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if errResult := validateBBox(&input.BBox); errResult != nil {
		return errResult, nil
	}

	pos, err := ParsePosition(input.Position, input.Latitude, input.Longitude)
	if err != nil {
		logger.Error("invalid position", "error", err)
		return core.NewValidationError(core.ErrInvalidInput, fmt.Sprintf("invalid position: %v", err)).ToMCPResult(), nil
	}
	if pos == nil {
		monitoring.NearestQueriesTotal.WithLabelValues("no_position").Inc()
		return toolErrorResult(nearest.ErrNoPosition), nil
	}

	cacheKey := fmt.Sprintf("%s|%.6f,%.6f", input.BBox.QueryString(), pos.Latitude, pos.Longitude)
	if cached, ok := getResultCache().Get(cacheKey); ok {
		monitoring.RecordCacheLookup(tracing.CacheTypeResult, true)
		return marshalResult(cached, logger)
	}
	monitoring.RecordCacheLookup(tracing.CacheTypeResult, false)

	doc, err := MapClient().FetchMap(ctx, &input.BBox)
	if err != nil {
		logger.Error("map fetch failed", "error", err)
		return core.NewError(core.ErrServiceUnavailable, fmt.Sprintf("fetching OSM map failed: %v", err)).ToMCPResult(), nil
	}

	tracing.SetAttributes(ctx,
		attribute.Float64(tracing.AttrQueryLat, pos.Latitude),
		attribute.Float64(tracing.AttrQueryLon, pos.Longitude),
		attribute.Int(tracing.AttrWayCount, len(doc.Ways)),
	)

	res, err := nearest.Nearest(doc, pos)
	monitoring.WaysScanned.Observe(float64(len(doc.Ways)))
	if err != nil {
		monitoring.NearestQueriesTotal.WithLabelValues("error").Inc()
		logger.Error("nearest-way query failed", "error", err)
		return toolErrorResult(err), nil
	}
	monitoring.NearestQueriesTotal.WithLabelValues("success").Inc()

	tracing.AddEvent(ctx, "nearest_way_found",
		trace.WithAttributes(
			attribute.Int64(tracing.AttrWayID, res.Way.ID),
			attribute.Float64(tracing.AttrNearestMeters, res.Distance),
		),
	)

	output := &NearestWayOutput{
		Way:      renderWay(doc, res.Way, &res),
		Distance: res.Distance,
		Point:    res.Point,
	}
	getResultCache().Add(cacheKey, output)

	return marshalResult(output, logger)
}

func marshalResult(v any, logger *slog.Logger) (*mcp.CallToolResult, error) {
	resultBytes, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}

// NearestPointsInput defines the input parameters for a per-way nearest query
type NearestPointsInput struct {
	BBox      geo.BoundingBox `json:"bbox"`
	Position  string          `json:"position,omitempty"`
	Latitude  float64         `json:"latitude,omitempty"`
	Longitude float64         `json:"longitude,omitempty"`
}

// NearestPointsOutput defines the per-way output of a nearest query
type NearestPointsOutput struct {
	Ways []WayView `json:"ways"`
}

// NearestPointsTool returns a tool definition for per-way nearest points
func NearestPointsTool() mcp.Tool {
	return mcp.NewTool("nearest_points",
		mcp.WithDescription("Compute the nearest point and distance for every way near a position. Ways whose distance cannot be computed carry a per-way error instead of aborting the query."),
		mcp.WithObject("bbox",
			mcp.Required(),
			mcp.Description("Bounding box to search, as {minLat, minLon, maxLat, maxLon}"),
		),
		mcp.WithString("position",
			mcp.Description("Query position as a coordinate string"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Query position latitude (alternative to position)"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Query position longitude (alternative to position)"),
		),
	)
}

// HandleNearestPoints implements the per-way nearest query
func HandleNearestPoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "nearest_points")

	input, errResult, err := InputParser[NearestPointsInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if errResult := validateBBox(&input.BBox); errResult != nil {
		return errResult, nil
	}

	pos, err := ParsePosition(input.Position, input.Latitude, input.Longitude)
	if err != nil {
		logger.Error("invalid position", "error", err)
		return core.NewValidationError(core.ErrInvalidInput, fmt.Sprintf("invalid position: %v", err)).ToMCPResult(), nil
	}
	if pos == nil {
		return toolErrorResult(nearest.ErrNoPosition), nil
	}

	doc, err := MapClient().FetchMap(ctx, &input.BBox)
	if err != nil {
		logger.Error("map fetch failed", "error", err)
		return core.NewError(core.ErrServiceUnavailable, fmt.Sprintf("fetching OSM map failed: %v", err)).ToMCPResult(), nil
	}

	results, err := nearest.Points(doc, pos)
	if err != nil {
		return toolErrorResult(err), nil
	}

	output := NearestPointsOutput{Ways: make([]WayView, 0, len(results))}
	for i := range results {
		output.Ways = append(output.Ways, renderWay(doc, results[i].Way, &results[i]))
	}

	return marshalResult(output, logger)
}
