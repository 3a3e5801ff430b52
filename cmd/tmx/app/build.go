package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/launcher"
)

// BuildOptions holds options for the build command
type BuildOptions struct {
	*GlobalOptions

	// ContextDir is the image build context directory.
	ContextDir string

	// Tag is the image tag to build.
	Tag string

	// NoCache disables the build cache.
	NoCache bool
}

// NewBuildCommand creates the build command.
//
// The build command builds the TaskMatrix container image from the recipe
// directory. Build output is streamed from the daemon; any failure,
// including network fetches inside the recipe, aborts the build.
//
// Usage:
//
//	tmx build [--context DIR] [--tag TAG] [--no-cache]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for building the image
func NewBuildCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &BuildOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the TaskMatrix container image",
		Example: `  # Build with defaults (context: deploy/, tag: taskmatrix:latest)
  tmx build

  # Rebuild from scratch
  tmx build --no-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts)
		},
	}

	cmd.Flags().StringVar(&opts.ContextDir, "context", config.DefaultContextDir,
		"image build context directory")
	cmd.Flags().StringVar(&opts.Tag, "tag", config.DefaultImageTag,
		"image tag")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false,
		"do not use the build cache")

	return cmd
}

// runBuild executes the build command logic
func runBuild(opts *BuildOptions) error {
	l, err := launcher.New()
	if err != nil {
		return err
	}
	defer l.Close()

	return l.BuildImage(context.Background(), launcher.BuildOptions{
		ContextDir: opts.ContextDir,
		Tag:        opts.Tag,
		NoCache:    opts.NoCache,
	})
}
