// Package buildinfo carries the version stamped into manifestcheck at build
// time.
//
//	go build -ldflags "-X github.com/matzehuels/manifestcheck/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/manifestcheck/pkg/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags "-X ...". Unset values fall back to the module build info.
var (
	Version = "dev"
	Commit  = "none"
)

// Resolved returns the version and commit, preferring ldflags values and
// falling back to what the Go toolchain embedded for `go install` builds.
func Resolved() (version, commit string) {
	version, commit = Version, Commit
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	if commit == "none" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				commit = s.Value
			}
		}
	}
	return version, commit
}

// UserAgent is sent on every registry request.
func UserAgent(app string) string {
	version, _ := Resolved()
	return app + "/" + version
}

// Template returns the version template string for cobra.
func Template() string {
	version, commit := Resolved()
	return fmt.Sprintf("{{.Name}} %s (%s)\n", version, short(commit))
}

func short(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
