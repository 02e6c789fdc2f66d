// Package version exposes the silodex build metadata reported in the startup
// log line. Release builds set these with -ldflags "-X ...".
package version

//nolint:revive // Overridden at link time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
