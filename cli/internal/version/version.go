// Package version holds build information for the worm CLI.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Set with -ldflags "-X github.com/satishbabariya/worm-go/cli/internal/version.Version=..."
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	Modified  bool
	GoVersion string
	Platform  string
}

// Get returns the build information, filling the commit and date from the
// embedded VCS stamp when they were not set at link time
func Get() Info {
	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// Semver parses the release version
func (i Info) Semver() (*goversion.Version, error) {
	v, err := goversion.NewSemver(strings.TrimPrefix(i.Version, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid release version %q: %w", i.Version, err)
	}
	return v, nil
}

func (i Info) String() string {
	return fmt.Sprintf("worm version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

func (i Info) FullString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "worm version %s\n", i.Version)
	if v, err := i.Semver(); err == nil && v.Prerelease() != "" {
		fmt.Fprintf(&b, "Pre-release: %s\n", v.Prerelease())
	}
	commit := i.GitCommit
	if i.Modified {
		commit += " (modified)"
	}
	fmt.Fprintf(&b, "Build Date: %s\nGit Commit: %s\nPlatform: %s\nGo Version: %s", i.BuildDate, commit, i.Platform, i.GoVersion)
	return b.String()
}
