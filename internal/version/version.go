// Package version holds build metadata injected at link time.
package version

var (
	// Version is the semantic version, set via -ldflags at build time.
	Version = "dev"
	// Commit is the git commit hash the binary was built from.
	Commit = "none"
	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)
