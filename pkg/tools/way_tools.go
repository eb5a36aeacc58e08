package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/osmtools/nearway/pkg/core"
	"github.com/osmtools/nearway/pkg/geo"
	"github.com/osmtools/nearway/pkg/nearest"
)

// DescribeWaysInput defines the input parameters for describing the ways in a bounding box
type DescribeWaysInput struct {
	BBox      geo.BoundingBox `json:"bbox"`
	Position  string          `json:"position,omitempty"`
	Latitude  float64         `json:"latitude,omitempty"`
	Longitude float64         `json:"longitude,omitempty"`
}

// DescribeWaysTool returns a tool definition for listing ways with tags and distances
func DescribeWaysTool() mcp.Tool {
	return mcp.NewTool("describe_ways",
		mcp.WithDescription("List every way in a bounding box with its tags rendered as 'key = value' lines, and the distance to a query position when one is given"),
		mcp.WithObject("bbox",
			mcp.Required(),
			mcp.Description("Bounding box as {minLat, minLon, maxLat, maxLon}"),
		),
		mcp.WithString("position",
			mcp.Description("Optional query position as a coordinate string"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Optional query position latitude"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Optional query position longitude"),
		),
	)
}

// HandleDescribeWays implements the way listing
func HandleDescribeWays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "describe_ways")

	input, errResult, err := InputParser[DescribeWaysInput](req)
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

	doc, err := MapClient().FetchMap(ctx, &input.BBox)
	if err != nil {
		logger.Error("map fetch failed", "error", err)
		return core.NewError(core.ErrServiceUnavailable, fmt.Sprintf("fetching OSM map failed: %v", err)).ToMCPResult(), nil
	}

	// Distances are optional; without a position the document is rendered
	// without them.
	var results []nearest.Result
	if pos != nil {
		results, err = nearest.Points(doc, pos)
		if err != nil {
			return toolErrorResult(err), nil
		}
	}

	var sb strings.Builder
	for i := range doc.Ways {
		way := &doc.Ways[i]

		fmt.Fprintf(&sb, "Way %d\n", way.ID)
		if results != nil {
			r := &results[i]
			if r.Err != nil {
				fmt.Fprintf(&sb, "Distance unavailable: %v\n", r.Err)
			} else {
				fmt.Fprintf(&sb, "Distance = %v\n", r.Distance)
			}
		}
		for _, tag := range way.Tags {
			fmt.Fprintf(&sb, "%s = %s\n", tag.Key, tag.Value)
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return core.NewError(core.ErrNoResults, "the bounding box contains no ways").
			WithGuidance("Try a larger bounding box.").
			ToMCPResult(), nil
	}

	return mcp.NewToolResultText(sb.String()), nil
}
