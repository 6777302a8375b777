// Package version contains version information.
package version

// Version information for the launcher. All values can be overridden with
// -ldflags "-X github.com/zorak1103/bootguard/internal/version.Version=5.2.1".
var (
	Version   = "master"
	BuildDate = "unknown"
	GitCommit = "unknown"
	// Packaged is "true" for installer builds.
	Packaged = "false"
)

// GetVersion returns the full version string
func GetVersion() string {
	return Version
}

// GetFullVersion returns version with build metadata
func GetFullVersion() string {
	return Version + " (build: " + BuildDate + ", commit: " + GitCommit + ")"
}

// IsPackaged reports whether this binary was built as an installer package.
func IsPackaged() bool {
	return Packaged == "true"
}
