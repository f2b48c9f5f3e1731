// Package version reports the build of cargo-script.
package version

import "runtime/debug"

// Version is stamped by release builds with
// -ldflags "-X github.com/VoxDroid/cargoscript/internal/version.Version=v1.2.3".
var Version = ""

// String returns Version, falling back to the module version recorded by
// go install and then to "devel".
func String() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "devel"
}
