// Package version reports build information injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/rshade/carbonledger/pkg/version.version=v1.2.3"
//
//nolint:gochecknoglobals // Build-time variables.
var (
	version   = "dev"
	gitCommit = ""
	buildDate = ""
)

// Info is the build description printed by "carbonledger version".
type Info struct {
	Version   string `json:"version"              yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version"           yaml:"go_version"`
	Platform  string `json:"platform"             yaml:"platform"`
}

// GetVersion returns the release version, or the module version recorded
// by the Go toolchain when none was injected.
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetInfo returns the full build description.
func GetInfo() Info {
	return Info{
		Version:   GetVersion(),
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders Info on one line.
func (i Info) String() string {
	s := "carbonledger " + i.Version
	if i.GitCommit != "" {
		s += fmt.Sprintf(" (%s)", i.GitCommit)
	}
	if i.BuildDate != "" {
		s += " built " + i.BuildDate
	}
	return s + " " + i.GoVersion + " " + i.Platform
}
