// Package misc holds program identity: name, version and source revision.
package misc

import (
	"runtime/debug"
)

// Set at link time with -ldflags "-X markfmt/misc.version=... -X markfmt/misc.gitHash=...".
var (
	version = "dev"
	gitHash = ""
)

const appName = "markfmt"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns revision program was built from, falling back to VCS
// information embedded by the go tool.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return "unknown"
}
