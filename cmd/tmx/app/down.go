package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/launcher"
)

// DownOptions holds options for the down command
type DownOptions struct {
	*GlobalOptions

	// Name is the container name to stop.
	Name string
}

// NewDownCommand creates the down command.
//
// The down command gracefully stops the deployment container. The
// container is created with auto-removal, so stopping it also removes it.
//
// Usage:
//
//	tmx down [--name NAME]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for stopping the deployment
func NewDownCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &DownOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the TaskMatrix deployment container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDown(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", config.DefaultContainerName,
		"container name")

	return cmd
}

// runDown executes the down command logic
func runDown(opts *DownOptions) error {
	l, err := launcher.New()
	if err != nil {
		return err
	}
	defer l.Close()

	return l.Stop(context.Background(), opts.Name)
}
