package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/launcher"
)

// UpOptions holds options for the up command
type UpOptions struct {
	*GlobalOptions

	// Image is the image tag to run.
	Image string

	// Name is the container name.
	Name string

	// WebPort is the published Gradio web UI port.
	WebPort int

	// HTTPPort is the published API sidecar port.
	HTTPPort int

	// CheckpointsDir is the host directory with model weights.
	CheckpointsDir string

	// AssetsDir is the host directory with static assets.
	AssetsDir string

	// Build builds the image before starting the container.
	Build bool

	// ContextDir is the build context used with --build.
	ContextDir string

	// NoGPU disables GPU device requests.
	NoGPU bool

	// Load overrides the container's model/device assignments.
	Load string
}

// NewUpCommand creates the up command.
//
// The up command builds (optionally) the TaskMatrix image and starts one
// deployment container with GPU access, the web and API ports published,
// and the checkpoints and assets directories mounted. The container name
// is fixed, so launching while a previous deployment is still running
// fails with the daemon's name conflict.
//
// Usage:
//
//	tmx up [--build] [--port PORT] [--api-port PORT] [OPTIONS]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for launching the deployment
func NewUpCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &UpOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch the TaskMatrix deployment container",
		Long: `Launch the TaskMatrix deployment container.

Publishes the web UI and API ports, mounts the checkpoints and assets
directories read/write, requests all GPU devices, and removes the
container automatically when it exits. The published host port and the
port the application binds inside the container are kept in agreement by
passing the same value as the WEB_PORT environment variable.`,
		Example: `  # Build the image and start the deployment
  tmx up --build

  # Start from an existing image on a custom port
  tmx up --port 9000

  # CPU-only deployment with custom models
  tmx up --no-gpu --load "ImageCaptioning_cpu,Text2Image_cpu"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range []int{opts.WebPort, opts.HTTPPort} {
				if p < 1 || p > 65535 {
					return fmt.Errorf("invalid port number: %d (must be between 1-65535)", p)
				}
			}
			if opts.Load != "" {
				if _, err := config.ParseAssignments(opts.Load); err != nil {
					return err
				}
			}
			return runUp(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", config.DefaultImageTag,
		"image tag to run")
	cmd.Flags().StringVar(&opts.Name, "name", config.DefaultContainerName,
		"container name")
	cmd.Flags().IntVar(&opts.WebPort, "port", config.DefaultWebPort,
		"published web UI port")
	cmd.Flags().IntVar(&opts.HTTPPort, "api-port", config.DefaultHTTPPort,
		"published REST API port")
	cmd.Flags().StringVar(&opts.CheckpointsDir, "checkpoints", config.DefaultCheckpointsDir,
		"host directory with model checkpoints")
	cmd.Flags().StringVar(&opts.AssetsDir, "assets", config.DefaultAssetsDir,
		"host directory with static assets")
	cmd.Flags().BoolVar(&opts.Build, "build", false,
		"build the image before starting")
	cmd.Flags().StringVar(&opts.ContextDir, "context", config.DefaultContextDir,
		"build context directory (with --build)")
	cmd.Flags().BoolVar(&opts.NoGPU, "no-gpu", false,
		"do not request GPU devices")
	cmd.Flags().StringVar(&opts.Load, "load", "",
		"model/device assignments passed into the container")

	return cmd
}

// runUp executes the up command logic
func runUp(opts *UpOptions) error {
	l, err := launcher.New()
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()

	if opts.Build {
		if err := l.BuildImage(ctx, launcher.BuildOptions{
			ContextDir: opts.ContextDir,
			Tag:        opts.Image,
		}); err != nil {
			return err
		}
	} else {
		if err := l.EnsureImage(ctx, opts.Image); err != nil {
			return err
		}
	}

	id, err := l.Run(ctx, launcher.RunOptions{
		Image:          opts.Image,
		Name:           opts.Name,
		WebPort:        opts.WebPort,
		HTTPPort:       opts.HTTPPort,
		CheckpointsDir: opts.CheckpointsDir,
		AssetsDir:      opts.AssetsDir,
		GPUs:           !opts.NoGPU,
		LoadArg:        opts.Load,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Deployment started: %s (%s)\n", opts.Name, id[:12])
	fmt.Printf("  Web UI:   http://localhost:%d\n", opts.WebPort)
	fmt.Printf("  REST API: http://localhost:%d\n", opts.HTTPPort)
	fmt.Printf("\nFollow startup with: tmx logs -f\n")
	return nil
}
