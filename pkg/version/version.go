// Package version holds build version information for nearway.
package version

// Build information, overridable at link time via -ldflags.
var (
	// BuildVersion is the semantic version of the build.
	BuildVersion = "0.1.0"

	// BuildCommit is the git commit the binary was built from.
	BuildCommit = "unknown"

	// BuildDate is the date the binary was built.
	BuildDate = "unknown"
)
