// Package version reports the build identity of the linetrend binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at link time with -ldflags "-X github.com/Sumatoshi-tech/linetrend/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns version, commit and date, filling the commit from the Go
// build info when it was not set at link time.
func Info() (version, commit, date string) {
	version, commit, date = Version, Commit, Date

	if commit != "unknown" {
		return version, commit, date
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, date
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			date = s.Value
		}
	}

	return version, commit, date
}

// String formats Info on one line.
func String() string {
	v, c, d := Info()

	return fmt.Sprintf("linetrend %s (commit %s, built %s)", v, c, d)
}
