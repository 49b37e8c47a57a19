package version

import (
	"fmt"
	"runtime"
)

// Injected at release build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GetVersion returns the full human-readable build description.
func GetVersion() string {
	return fmt.Sprintf("rambo %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, runtime.Version())
}

// GetVersionOnly returns the bare version string for comparisons.
func GetVersionOnly() string {
	return Version
}
