// internal/version/version.go
package version

// Version is the tool version reported by --version.
// Overridden at build time via -ldflags "-X estkit/internal/version.Version=...".
var Version = "0.3.0"
