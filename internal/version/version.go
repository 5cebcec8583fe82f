// Package version reports build information for nescore.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time via -ldflags "-X nescore/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Modified  bool   `json:"modified"`
}

// Get returns build information, filling gaps from the VCS stamp the Go
// toolchain embeds.
func Get() BuildInfo {
	bi := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if bi.GitCommit == "unknown" {
					bi.GitCommit = setting.Value
				}
			case "vcs.time":
				if bi.BuildTime == "unknown" {
					bi.BuildTime = setting.Value
				}
			case "vcs.modified":
				bi.Modified = setting.Value == "true"
			}
		}
	}
	return bi
}

func (bi BuildInfo) shortCommit() string {
	if len(bi.GitCommit) > 7 {
		return bi.GitCommit[:7]
	}
	return bi.GitCommit
}

// String returns a one-line version, e.g. "nescore dev-1a2b3c4 (go1.23.4 linux/amd64)".
func (bi BuildInfo) String() string {
	v := bi.Version
	if v == "dev" && bi.GitCommit != "unknown" {
		v = "dev-" + bi.shortCommit()
	}
	if bi.Modified {
		v += "+dirty"
	}
	return fmt.Sprintf("nescore %s (%s %s)", v, bi.GoVersion, bi.Platform)
}

// Write prints the build information, one field per line.
func (bi BuildInfo) Write(w io.Writer, mappers []string) {
	fmt.Fprintf(w, "nescore - NES emulation core\n")
	fmt.Fprintf(w, "Version:     %s\n", bi.Version)
	fmt.Fprintf(w, "Git Commit:  %s\n", bi.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", bi.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", bi.GoVersion)
	fmt.Fprintf(w, "Platform:    %s\n", bi.Platform)
	if len(mappers) > 0 {
		fmt.Fprintf(w, "Mappers:     %s\n", strings.Join(mappers, ", "))
	}
}
