// Package version holds build metadata injected with -ldflags, e.g.
// -X github.com/egoavara/shellconf/internal/version.Version=v1.2.3
package version

var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)
