// Package version carries build metadata set with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns a one-line description for --version and startup logs.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s)",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// LogAttrs returns the build metadata as slog key/value pairs.
func LogAttrs() []any {
	return []any{"version", Version, "commit", GitCommit, "built", BuildDate, "go", runtime.Version()}
}
