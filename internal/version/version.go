// Package version carries build metadata injected via -ldflags.
package version

import "fmt"

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String formats the build metadata for --version output.
func String() string {
	return fmt.Sprintf("codescan %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
