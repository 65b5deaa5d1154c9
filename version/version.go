// Package version holds the release identity of the emulator, and
// the banner printed at boot.
package version

import (
	"fmt"
)

// version contains the release string, overridden at build-time via:
//
//	-ldflags "-X github.com/retroshell/cpm80/version.version=1.2.3"
var version = "unreleased"

// GetVersion returns the release string.
func GetVersion() string {
	return version
}

// Banner returns the text the machine prints when it boots.
func Banner() string {
	return fmt.Sprintf("cpm80 %s - CP/M 2.2 on an emulated Intel 8080\r\n", version)
}
