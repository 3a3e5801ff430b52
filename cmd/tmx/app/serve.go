package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/logger"
	"github.com/taskmatrix/tmx/internal/server"
)

// ServeOptions holds options for the serve command
type ServeOptions struct {
	*GlobalOptions

	// Port is the API server port (0 means use HTTP_PORT/default).
	Port int

	// GradioPort is the Gradio application port (0 means use
	// WEB_PORT/default).
	GradioPort int

	// GradioHost is the Gradio application host.
	GradioHost string
}

// NewServeCommand creates the serve command.
//
// The serve command starts the REST API sidecar that wraps the Gradio
// application. Inside the container it is launched by the entrypoint
// supervisor; it can also be run standalone against a reachable Gradio
// instance for development.
//
// Usage:
//
//	tmx serve [--port PORT] [--gradio-port PORT] [--gradio-host HOST]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for starting the API sidecar
func NewServeCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &ServeOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API sidecar",
		Long: `Start the REST API server that wraps the Gradio web application.

The server exposes health, info and message endpoints on its own port,
distinct from the Gradio port. Press Ctrl+C to gracefully shut down.`,
		Example: `  # Defaults: API on 8000, Gradio probed on localhost:11220
  tmx serve

  # Explicit ports
  tmx serve --port 8080 --gradio-port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Port != 0 && (opts.Port < 1 || opts.Port > 65535) {
				return fmt.Errorf("invalid port number: %d (must be between 1-65535)", opts.Port)
			}
			return runServe(opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0,
		"API server port (default: HTTP_PORT env or 8000)")
	cmd.Flags().IntVar(&opts.GradioPort, "gradio-port", 0,
		"Gradio application port (default: WEB_PORT env or 11220)")
	cmd.Flags().StringVar(&opts.GradioHost, "gradio-host", "",
		"Gradio application host (default: GRADIO_HOST env or localhost)")

	return cmd
}

// runServe executes the serve command logic.
//
// This function starts the HTTP server and handles graceful shutdown on
// interrupt signals.
func runServe(opts *ServeOptions) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if opts.Port != 0 {
		cfg.HTTPPort = opts.Port
	}
	if opts.GradioPort != 0 {
		cfg.WebPort = opts.GradioPort
	}
	if opts.GradioHost != "" {
		cfg.GradioHost = opts.GradioHost
	}

	srv := server.NewServer(cfg, GetVersion())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			if isAddressInUse(err) {
				logger.Error("Port %d is already in use", cfg.HTTPPort)
			}
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case <-sigChan:
		logger.Info("Received interrupt signal, shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info("Server stopped successfully")
		return nil

	case err := <-errChan:
		return err
	}
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
