// Package version provides the version information of dfilter.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Name of dfilter.
	Name string = "dfilter"
	// Version of dfilter.
	Version string = "1.0.0-develop"
)

// Commit is the VCS revision the binary was built from, if known.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}

// String returns a one line representation of the version information.
func String() string {
	s := fmt.Sprintf("%s %s %s", Name, Version, runtime.Version())
	if commit := Commit(); commit != "" {
		s += " " + commit
	}
	return s
}
