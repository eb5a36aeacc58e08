package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/osmtools/nearway/pkg/version"
)

// VersionInfo represents version information for the service
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// GetVersionTool returns a tool definition for retrieving version information
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version and build information of the nearway service"),
	)
}

// HandleGetVersion implements version information retrieval
func HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_version")

	info := VersionInfo{
		Version:   version.BuildVersion,
		GoVersion: runtime.Version(),
		Commit:    version.BuildCommit,
		BuildDate: version.BuildDate,
	}

	resultBytes, err := json.Marshal(info)
	if err != nil {
		logger.Error("failed to marshal version info", "error", err)
		return ErrorResponse("Failed to retrieve version information"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
