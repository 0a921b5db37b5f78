// Package version holds build identification, overridable at link time.
package version

var (
	// Version is the release version, set via -ldflags.
	Version = "dev"
	// BuildTime is the build timestamp, set via -ldflags.
	BuildTime = "unknown"
	// GitCommit is the source revision, set via -ldflags.
	GitCommit = "unknown"
)

// String returns a human-readable version line.
func String() string {
	return Version + " (" + GitCommit + ", " + BuildTime + ")"
}
