package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time metadata, overridable via -ldflags.
var (
	// Version is the semantic version of the tmx binary.
	Version = "1.0.0"

	// BuildTime is the timestamp the binary was built.
	BuildTime = "unknown"

	// GitCommit is the git commit the binary was built from.
	GitCommit = "dev"
)

// GetVersion returns the tmx version string.
func GetVersion() string {
	return Version
}

// NewVersionCommand creates the version command.
//
// Usage:
//
//	tmx version
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for displaying version info
func NewVersionCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("tmx version %s\n", Version)
			fmt.Printf("  Build Time: %s\n", BuildTime)
			fmt.Printf("  Git Commit: %s\n", GitCommit)
			return nil
		},
	}
}
