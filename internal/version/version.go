package version

import "fmt"

// These variables are set via ldflags at build time.
// Example: go build -ldflags "-X smsledger/internal/version.Version=1.0.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info is the build metadata reported by the API and CLI
type Info struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Get returns the current build metadata
func Get() Info {
	return Info{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit}
}

// String formats the build metadata for --version output
func (i Info) String() string {
	return fmt.Sprintf("smsledger %s (built %s, commit %s)", i.Version, i.BuildTime, i.GitCommit)
}
