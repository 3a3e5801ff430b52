// Package app provides the command-line interface implementation for tmx.
//
// This package contains all CLI commands and their implementations,
// following the Kubernetes CLI architecture pattern with cobra. Commands
// are organized hierarchically with a root command and subcommands.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/logger"
)

const (
	// cliName is the name of the CLI application
	cliName = "tmx"

	// cliDescription is the short description shown in help text
	cliDescription = "tmx - TaskMatrix Visual ChatGPT deployment tool"
)

// GlobalOptions holds options that are common to all commands
type GlobalOptions struct {
	// Verbose enables verbose output
	Verbose bool
}

// NewTMXCommand creates the root tmx command with all subcommands.
//
// The root command provides the main entry point for the CLI. It sets up
// global flags and registers all subcommands.
//
// Returns:
//   - A configured cobra.Command ready for execution
func NewTMXCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   cliName,
		Short: cliDescription,
		Long: `tmx packages the deployment scaffolding for the TaskMatrix Visual ChatGPT
demo: building the container image, launching the GPU-backed container with
the right port and volume bindings, supervising the application processes
inside the container, and talking to a running deployment.

Host-side commands (build, up, down, logs) require a reachable Docker
daemon. The entrypoint and serve commands run inside the container.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				logger.SetDebug(true)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	cmd.AddCommand(
		NewBuildCommand(opts),
		NewUpCommand(opts),
		NewDownCommand(opts),
		NewLogsCommand(opts),
		NewEntrypointCommand(opts),
		NewServeCommand(opts),
		NewStatusCommand(opts),
		NewChatCommand(opts),
		NewVersionCommand(opts),
	)

	return cmd
}

// checkError prints an error and exits if err is not nil.
//
// This is a convenience function for fatal error handling in CLI commands.
// It prints the error to stderr and exits with code 1.
func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
