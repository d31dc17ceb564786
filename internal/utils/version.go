package utils

import "fmt"

// Build metadata, overridden with -ldflags "-X .../internal/utils.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// CurrentBuild returns the build metadata linked into the binary
func CurrentBuild() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, Date: Date}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}
