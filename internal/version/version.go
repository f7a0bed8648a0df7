// Package version centralizes version management for releases.
package version

// Version is the current release version. Overridable at build time:
// go build -ldflags "-X github.com/standardbeagle/probe/internal/version.Version=x.y.z"
var Version = "0.3.0"
