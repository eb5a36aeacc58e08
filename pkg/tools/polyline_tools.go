package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/osmtools/nearway/pkg/core"
	"github.com/osmtools/nearway/pkg/geo"
	"github.com/osmtools/nearway/pkg/osm"
)

// PolylineDecodeInput defines the input parameters for decoding a polyline
type PolylineDecodeInput struct {
	Polyline string `json:"polyline"`
}

// PolylineDecodeOutput defines the output for decoded polyline points
type PolylineDecodeOutput struct {
	Points []geo.Location `json:"points"`
}

// PolylineDecodeTool returns a tool definition for decoding polylines
func PolylineDecodeTool() mcp.Tool {
	return mcp.NewTool("polyline_decode",
		mcp.WithDescription("Decode an encoded polyline string into a series of geographic coordinates"),
		mcp.WithString("polyline",
			mcp.Required(),
			mcp.Description("The encoded polyline string to decode"),
		),
	)
}

// HandlePolylineDecode implements polyline decoding
func HandlePolylineDecode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "polyline_decode")

	polyline := mcp.ParseString(req, "polyline", "")
	if polyline == "" {
		logger.Error("missing polyline input")
		return ErrorResponse("Polyline string is required"), nil
	}

	locations, err := core.DecodePolyline(polyline)
	if err != nil {
		logger.Error("failed to decode polyline", "error", err)
		return ErrorResponse("Failed to decode polyline: malformed input"), nil
	}

	output := PolylineDecodeOutput{
		Points: locations,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// PolylineEncodeInput defines the input parameters for encoding points to a polyline
type PolylineEncodeInput struct {
	Points []geo.Location `json:"points"`
}

// PolylineEncodeOutput defines the output for an encoded polyline
type PolylineEncodeOutput struct {
	Polyline string `json:"polyline"`
}

// PolylineEncodeTool returns a tool definition for encoding points to a polyline
func PolylineEncodeTool() mcp.Tool {
	return mcp.NewTool("polyline_encode",
		mcp.WithDescription("Encode a series of geographic coordinates into a polyline string"),
		mcp.WithArray("points",
			mcp.Required(),
			mcp.Description("Array of latitude/longitude points to encode"),
		),
	)
}

// HandlePolylineEncode implements polyline encoding
func HandlePolylineEncode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "polyline_encode")

	input, errResult, err := InputParser[PolylineEncodeInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if len(input.Points) == 0 {
		logger.Error("empty points array")
		return ErrorResponse("At least one point is required"), nil
	}

	for i, p := range input.Points {
		if err := osm.ValidateCoords(p.Latitude, p.Longitude); err != nil {
			logger.Error("invalid coordinates", "error", err, "index", i)
			return ErrorResponse(err.Error()), nil
		}
	}

	output := PolylineEncodeOutput{
		Polyline: core.EncodePolyline(input.Points),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
