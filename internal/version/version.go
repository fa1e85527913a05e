// Package version holds the build version string.
package version

// Version is the current release version. Overridden at build time via
// -ldflags "-X .../internal/version.Version=vX.Y.Z".
var Version = "v0.3.0"
