// Package version carries build metadata injected with -ldflags -X.
package version

import "fmt"

var (
	Version = "v0.3.0"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for humans.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

// UserAgent identifies the proxy to FRED.
func UserAgent() string {
	return "fredproxy/" + Version
}
