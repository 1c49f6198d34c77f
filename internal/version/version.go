// Package version holds build metadata injected with -ldflags -X.
package version

import "fmt"

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build metadata for logs and the About dialog.
func String() string {
	return fmt.Sprintf("DepthLens v%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
