// internal/version/version.go
//
// Package version contains the Cortex cartography core version string.
// This is kept in an internal package so that the public API can
// expose it in a controlled manner via cortex.Version().
package version

// CortexVersion is the current version of the cartography core.
const CortexVersion = "v0.1.0-dev"
