package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/launcher"
)

// LogsOptions holds options for the logs command
type LogsOptions struct {
	*GlobalOptions

	// Name is the container name to read logs from.
	Name string

	// Follow continues streaming logs in real-time.
	Follow bool
}

// NewLogsCommand creates the logs command.
//
// The logs command displays logs from the deployment container.
//
// Usage:
//
//	tmx logs [--name NAME] [-f]
//
// Examples:
//
//	# View logs
//	tmx logs
//
//	# Follow logs in real-time (like tail -f)
//	tmx logs -f
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for viewing logs
func NewLogsCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &LogsOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View logs from the deployment container",
		Long: `View logs from the deployment container.

By default, shows existing logs and exits. Use -f/--follow to stream logs
in real-time (press Ctrl+C to stop).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", config.DefaultContainerName,
		"container name")
	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false,
		"follow log output (stream logs in real-time)")

	return cmd
}

// runLogs executes the logs command logic
func runLogs(opts *LogsOptions) error {
	l, err := launcher.New()
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C cancels the stream when following.
	if opts.Follow {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			<-sigChan
			cancel()
		}()
	}

	stream, err := l.Logs(ctx, opts.Name, opts.Follow)
	if err != nil {
		return err
	}
	defer stream.Close()

	// Demultiplex Docker's stdout/stderr framing onto our own streams.
	if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, stream); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
