// Package appinfo reports build information about the running binary
package appinfo

import (
	"os"
	"runtime/debug"
)

// Version is set at build time with -ldflags "-X helpinghands/internal/appinfo.Version=..."
var Version = ""

// GetVersion returns the application version. It checks, in order, the
// linker-set Version, the APP_VERSION environment variable, the module
// version and VCS revision from the build info, then falls back to
// "0.0.0-unknown".
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}

	return "0.0.0-unknown"
}
