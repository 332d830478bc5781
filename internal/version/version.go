// Package version holds build metadata injected via ldflags.
package version

import (
	"fmt"

	"go.uber.org/zap"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for CLI output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Fields returns the build metadata as log fields.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_date", Date),
	}
}
