// Package version holds the build version, overridden with -ldflags at release time.
package version

// Version is set via -ldflags "-X github.com/guiyumin/voicetext/internal/core/version.Version=..."
var Version = "0.1.0-dev"
