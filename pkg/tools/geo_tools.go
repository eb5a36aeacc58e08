package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/osmtools/nearway/pkg/geo"
	"github.com/osmtools/nearway/pkg/osm"
)

// GeoDistanceInput defines the input parameters for calculating distance
type GeoDistanceInput struct {
	From geo.Location `json:"from"`
	To   geo.Location `json:"to"`
}

// GeoDistanceOutput defines the output for distance calculation
type GeoDistanceOutput struct {
	Distance float64 `json:"distance"` // in meters
}

// GeoDistanceTool returns a tool definition for calculating geographic distance
func GeoDistanceTool() mcp.Tool {
	return mcp.NewTool("geo_distance",
		mcp.WithDescription("Calculate the great-circle distance between two geographic coordinates using the Haversine formula"),
		mcp.WithObject("from",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("to",
			mcp.Required(),
			mcp.Description("The ending point as {latitude, longitude}"),
		),
	)
}

// HandleGeoDistance implements geographic distance calculation
func HandleGeoDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geo_distance")

	input, errResult, err := InputParser[GeoDistanceInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := osm.ValidateCoords(input.From.Latitude, input.From.Longitude); err != nil {
		logger.Error("invalid 'from' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'from' coordinates: %s", err)), nil
	}

	if err := osm.ValidateCoords(input.To.Latitude, input.To.Longitude); err != nil {
		logger.Error("invalid 'to' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'to' coordinates: %s", err)), nil
	}

	output := GeoDistanceOutput{
		Distance: geo.Distance(input.From, input.To),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// GeoBearingInput defines the input parameters for calculating a bearing
type GeoBearingInput struct {
	From geo.Location `json:"from"`
	To   geo.Location `json:"to"`
}

// GeoBearingOutput defines the output for bearing calculation
type GeoBearingOutput struct {
	Bearing float64 `json:"bearing"` // degrees, [0, 360)
}

// GeoBearingTool returns a tool definition for calculating an initial bearing
func GeoBearingTool() mcp.Tool {
	return mcp.NewTool("geo_bearing",
		mcp.WithDescription("Calculate the initial great-circle bearing from one coordinate toward another, in degrees [0, 360)"),
		mcp.WithObject("from",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("to",
			mcp.Required(),
			mcp.Description("The target point as {latitude, longitude}"),
		),
	)
}

// HandleGeoBearing implements initial bearing calculation
func HandleGeoBearing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geo_bearing")

	input, errResult, err := InputParser[GeoBearingInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := osm.ValidateCoords(input.From.Latitude, input.From.Longitude); err != nil {
		logger.Error("invalid 'from' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'from' coordinates: %s", err)), nil
	}

	if err := osm.ValidateCoords(input.To.Latitude, input.To.Longitude); err != nil {
		logger.Error("invalid 'to' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'to' coordinates: %s", err)), nil
	}

	output := GeoBearingOutput{
		Bearing: geo.Bearing(input.From, input.To),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// GeoDestinationInput defines the input parameters for projecting a destination
type GeoDestinationInput struct {
	Origin   geo.Location `json:"origin"`
	Bearing  float64      `json:"bearing"`  // degrees
	Distance float64      `json:"distance"` // meters
}

// GeoDestinationOutput defines the output for destination projection
type GeoDestinationOutput struct {
	Destination geo.Location `json:"destination"`
}

// GeoDestinationTool returns a tool definition for great-circle destination projection
func GeoDestinationTool() mcp.Tool {
	return mcp.NewTool("geo_destination",
		mcp.WithDescription("Project the point reached by travelling a bearing and distance from an origin along a great circle"),
		mcp.WithObject("origin",
			mcp.Required(),
			mcp.Description("The origin point as {latitude, longitude}"),
		),
		mcp.WithNumber("bearing",
			mcp.Required(),
			mcp.Description("Bearing in degrees (0 = north, clockwise)"),
		),
		mcp.WithNumber("distance",
			mcp.Required(),
			mcp.Description("Distance to travel in meters"),
		),
	)
}

// HandleGeoDestination implements destination projection
func HandleGeoDestination(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geo_destination")

	input, errResult, err := InputParser[GeoDestinationInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := osm.ValidateCoords(input.Origin.Latitude, input.Origin.Longitude); err != nil {
		logger.Error("invalid origin coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid origin coordinates: %s", err)), nil
	}

	if input.Distance < 0 {
		logger.Error("negative distance", "distance", input.Distance)
		return ErrorResponse("Distance must not be negative"), nil
	}

	output := GeoDestinationOutput{
		Destination: geo.Destination(input.Origin, input.Bearing, input.Distance),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// BBoxFromPointsInput defines the input parameters for creating a bounding box
type BBoxFromPointsInput struct {
	Points []geo.Location `json:"points"`
}

// BBoxFromPointsOutput defines the output for bounding box creation
type BBoxFromPointsOutput struct {
	BBox geo.BoundingBox `json:"bbox"`
}

// BBoxFromPointsTool returns a tool definition for creating a bounding box from points
func BBoxFromPointsTool() mcp.Tool {
	return mcp.NewTool("bbox_from_points",
		mcp.WithDescription("Create a bounding box that encompasses all given geographic coordinates"),
		mcp.WithArray("points",
			mcp.Required(),
			mcp.Description("Array of latitude/longitude points to include in the bounding box"),
		),
	)
}

// HandleBBoxFromPoints implements bounding box creation from points
func HandleBBoxFromPoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "bbox_from_points")

	input, errResult, err := InputParser[BBoxFromPointsInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if len(input.Points) == 0 {
		logger.Error("empty points array")
		return ErrorResponse("At least one point is required"), nil
	}

	bbox := geo.NewBoundingBox()
	for i, p := range input.Points {
		if err := osm.ValidateCoords(p.Latitude, p.Longitude); err != nil {
			logger.Error("invalid coordinates", "error", err, "index", i)
			return ErrorResponse(fmt.Sprintf("Invalid coordinates at index %d: %s", i, err)), nil
		}
		bbox.ExtendWithPoint(p.Latitude, p.Longitude)
	}

	output := BBoxFromPointsOutput{
		BBox: *bbox,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
