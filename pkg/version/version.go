// Package version holds the build version of readmit.
package version

import "runtime/debug"

// Version is the current application version. It is a var so release
// builds can set it:
//
//	go build -ldflags "-X github.com/vanderheijden86/readmit/pkg/version.Version=v0.2.0"
var Version = "v0.1.0-dev"

// String returns Version plus the VCS revision recorded by the Go
// toolchain, when there is one.
func String() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return Version + " (" + s.Value[:7] + ")"
		}
	}
	return Version
}
