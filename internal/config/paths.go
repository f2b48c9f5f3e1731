// Package config holds the fixed identity of the cargo-script file association
// and the locations it touches.
package config

import "runtime"

// EnvironmentKey is the system environment block under HKEY_LOCAL_MACHINE.
const EnvironmentKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// PathExtValue is the value name of the executable extension list.
const PathExtValue = "PATHEXT"

// Association names the extension, handler and launcher being registered.
type Association struct {
	Extension    string
	ProgID       string
	FriendlyName string
	LauncherName string
}

// DefaultAssociation returns the .crs association.
func DefaultAssociation() Association {
	return Association{
		Extension:    ".crs",
		ProgID:       "CargoScript.Crs",
		FriendlyName: "Cargo Script",
		LauncherName: LauncherName(),
	}
}

// LauncherName returns the file name of the companion launcher executable.
func LauncherName() string {
	if runtime.GOOS == "windows" {
		return "run-cargo-script.exe"
	}
	return "run-cargo-script"
}
