// Package version exposes build metadata injected with -ldflags:
//
//	go build -ldflags "-X github.com/rshade/bytecarbon/pkg/version.version=v1.2.3"
package version

import "runtime/debug"

//nolint:gochecknoglobals // Set at link time.
var (
	version   = ""
	gitCommit = ""
	buildDate = ""
)

const devVersion = "0.0.0-dev"

// GetVersion returns the linked version, the module version when built with
// go install, or a development placeholder.
func GetVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}

// GetGitCommit returns the linked commit hash, or "unknown".
func GetGitCommit() string {
	if gitCommit == "" {
		return "unknown"
	}
	return gitCommit
}

// GetBuildDate returns the linked build date, or "unknown".
func GetBuildDate() string {
	if buildDate == "" {
		return "unknown"
	}
	return buildDate
}
