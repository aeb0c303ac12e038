// Package buildinfo holds version details stamped in at link time:
//
//	go build -ldflags "-X github.com/roach88/zerv/internal/buildinfo.Version=1.4.0"
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release of the binary.
	Version = "dev"
	// Commit is the short git SHA the binary was built from.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the version string. Unstamped builds fall back to the
// module version recorded by the Go toolchain, when there is one.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("zerv %s (commit: %s, built at: %s)", Short(), Commit, BuildTime)
}
