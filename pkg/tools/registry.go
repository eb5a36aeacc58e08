package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/osmtools/nearway/pkg/monitoring"
	"github.com/osmtools/nearway/pkg/tracing"
)

// Registry contains all tool definitions and handlers
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a new tool registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// ToolDefinition represents a nearway MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// Version and capability tools
		{
			Name:        "get_version",
			Description: "Get the version information for the nearway service",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},

		// Map document tools
		{
			Name:        "fetch_map",
			Description: "Fetch the OSM network in a bounding box. Parameters: bbox (object with minLat, minLon, maxLat, maxLon)",
			Tool:        FetchMapTool(),
			Handler:     HandleFetchMap,
		},
		{
			Name:        "describe_ways",
			Description: "List ways in a bounding box with tags and optional distances. Parameters: bbox (object), position (string) or latitude/longitude (numbers)",
			Tool:        DescribeWaysTool(),
			Handler:     HandleDescribeWays,
		},

		// Nearest-way query tools
		{
			Name:        "nearest_way",
			Description: "Find the way nearest to a position. Parameters: bbox (object), position (string, accepts decimal/DMS/MGRS) or latitude/longitude (numbers)",
			Tool:        NearestWayTool(),
			Handler:     HandleNearestWay,
		},
		{
			Name:        "nearest_points",
			Description: "Compute the nearest point on every way for a position. Parameters: bbox (object), position (string) or latitude/longitude (numbers)",
			Tool:        NearestPointsTool(),
			Handler:     HandleNearestPoints,
		},

		// Geo utility tools
		{
			Name:        "geo_distance",
			Description: "Calculate distance between two points. Parameters: from (object with latitude/longitude), to (object with latitude/longitude)",
			Tool:        GeoDistanceTool(),
			Handler:     HandleGeoDistance,
		},
		{
			Name:        "geo_bearing",
			Description: "Calculate the initial bearing from one point toward another. Parameters: from (object), to (object)",
			Tool:        GeoBearingTool(),
			Handler:     HandleGeoBearing,
		},
		{
			Name:        "geo_destination",
			Description: "Project a destination point from an origin, bearing and distance. Parameters: origin (object), bearing (number), distance (number)",
			Tool:        GeoDestinationTool(),
			Handler:     HandleGeoDestination,
		},
		{
			Name:        "bbox_from_points",
			Description: "Create a bounding box from multiple points. Parameters: points (array of latitude/longitude objects)",
			Tool:        BBoxFromPointsTool(),
			Handler:     HandleBBoxFromPoints,
		},

		// Polyline utilities
		{
			Name:        "polyline_decode",
			Description: "Decode a polyline string into a series of coordinates. Parameters: polyline (string)",
			Tool:        PolylineDecodeTool(),
			Handler:     HandlePolylineDecode,
		},
		{
			Name:        "polyline_encode",
			Description: "Encode a series of coordinates into a polyline string. Parameters: points (array of latitude/longitude objects)",
			Tool:        PolylineEncodeTool(),
			Handler:     HandlePolylineEncode,
		},
	}

	return defs
}

// RegisterAll registers all tools with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, r.wrapWithTracing(def.Name, def.Handler))
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing and
// Prometheus metrics.
func (r *Registry) wrapWithTracing(toolName string, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		startTime := time.Now()

		result, err := handler(ctx, req)

		duration := time.Since(startTime)

		status := tracing.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = tracing.StatusError
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, duration.Milliseconds()),
			attribute.Int(tracing.AttrMCPResultSize, resultSize),
		)

		monitoring.RecordToolRequest(toolName, status, duration)

		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", duration.Milliseconds(),
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}
