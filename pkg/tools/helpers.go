// Package tools provides the nearway MCP tool implementations.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/osmtools/nearway/pkg/coords"
	"github.com/osmtools/nearway/pkg/geo"
)

// ErrorResponse returns a plain-text MCP error result.
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// InputParser is a generic function to parse request arguments into a strongly typed struct
func InputParser[T any](req mcp.CallToolRequest) (T, *mcp.CallToolResult, error) {
	var input T

	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return input, ErrorResponse(fmt.Sprintf("Invalid input format: %v", err)), err
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		return input, ErrorResponse(fmt.Sprintf("Failed to parse input: %v", err)), err
	}

	return input, nil, nil
}

// ValidateCoordinates validates latitude and longitude are within valid ranges
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", lon)
	}
	return nil
}

// ParsePosition resolves a query position from either an explicit
// latitude/longitude pair or a position string in any supported format
// (decimal, DMS, MGRS). The string form wins when both are given.
func ParsePosition(positionStr string, lat, lon float64) (*geo.Location, error) {
	if positionStr != "" {
		result, err := coords.Parse(positionStr)
		if err != nil {
			return nil, err
		}
		return &result.Location, nil
	}

	if lat == 0 && lon == 0 {
		return nil, nil
	}
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	return &geo.Location{Latitude: lat, Longitude: lon}, nil
}
