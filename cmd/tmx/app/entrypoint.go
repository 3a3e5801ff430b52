package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/logger"
	"github.com/taskmatrix/tmx/internal/readiness"
	"github.com/taskmatrix/tmx/internal/supervisor"
)

// EntrypointOptions holds options for the entrypoint command
type EntrypointOptions struct {
	*GlobalOptions

	// Load overrides the model/device assignments (--load syntax).
	Load string

	// WithAPI also launches the REST API sidecar once the primary
	// application is ready.
	WithAPI bool

	// ReadyTimeout bounds how long to wait for the primary application
	// to accept connections before giving up.
	ReadyTimeout time.Duration

	// PythonBin is the Python interpreter used to run the application.
	PythonBin string

	// AppScript is the application script path inside the container.
	AppScript string
}

// NewEntrypointCommand creates the entrypoint command.
//
// The entrypoint command is the container's initial process. It launches
// the Visual ChatGPT application with the configured model assignments and
// port, optionally waits for it to become ready and then launches the REST
// API sidecar, and supervises both until they exit.
//
// Usage:
//
//	tmx entrypoint [--load ASSIGNMENTS] [--with-api] [--ready-timeout DURATION]
//
// Environment:
//
//	WEB_PORT   port for the Gradio web UI (default 11220)
//	HTTP_PORT  port for the API sidecar (default 8000)
//	TMX_MODELS model/device assignments (--load syntax)
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for running the container entrypoint
func NewEntrypointCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &EntrypointOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "entrypoint",
		Short: "Run the container entrypoint process supervisor",
		Long: `Run the in-container process supervisor.

Launches the Visual ChatGPT application with the configured model/device
assignments and listening port. With --with-api (the default), waits for
the application to accept connections and then launches the REST API
sidecar on a separate port. The supervisor exits only after every launched
process has exited; if any process failed, the failures are reported per
process and the exit code is non-zero.`,
		Example: `  # Default deployment: Gradio on 11220, API sidecar on 8000
  tmx entrypoint

  # Custom models, no sidecar
  tmx entrypoint --with-api=false --load "ImageCaptioning_cuda:0,VisualQuestionAnswering_cuda:1"

  # Custom web port
  WEB_PORT=9000 tmx entrypoint`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntrypoint(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Load, "load", "",
		"model/device assignments, e.g. \"ImageCaptioning_cuda:0,Text2Image_cuda:0\"")
	cmd.Flags().BoolVar(&opts.WithAPI, "with-api", true,
		"launch the REST API sidecar after the application is ready")
	cmd.Flags().DurationVar(&opts.ReadyTimeout, "ready-timeout", readiness.DefaultTimeout,
		"how long to wait for the application to accept connections")
	cmd.Flags().StringVar(&opts.PythonBin, "python", "python",
		"python interpreter for the application")
	cmd.Flags().StringVar(&opts.AppScript, "app", "visual_chatgpt.py",
		"application script to launch")

	return cmd
}

// buildPrimarySpec builds the launch spec for the Visual ChatGPT
// application: the fixed model-loading directive plus an explicit port
// flag carrying the configured web port.
func buildPrimarySpec(cfg *config.Config, assignments config.Assignments, opts *EntrypointOptions) supervisor.Spec {
	return supervisor.Spec{
		Name:    "visual-chatgpt",
		Command: opts.PythonBin,
		Args: []string{
			opts.AppScript,
			"--load", assignments.LoadArg(),
			"--port", fmt.Sprintf("%d", cfg.WebPort),
		},
	}
}

// buildAPISpec builds the launch spec for the REST API sidecar, which is
// this binary re-executed with the serve command.
func buildAPISpec(cfg *config.Config, executable string) supervisor.Spec {
	return supervisor.Spec{
		Name:    "api",
		Command: executable,
		Args: []string{
			"serve",
			"--port", fmt.Sprintf("%d", cfg.HTTPPort),
			"--gradio-port", fmt.Sprintf("%d", cfg.WebPort),
		},
	}
}

// runEntrypoint executes the entrypoint command logic.
//
// Startup sequence:
//  1. Launch the primary application.
//  2. Dual-process mode: wait until the primary's port accepts
//     connections (bounded), failing distinctly if the primary exits
//     first or never becomes ready.
//  3. Launch the API sidecar.
//  4. Forward signals and wait for all processes; aggregate failures.
func runEntrypoint(opts *EntrypointOptions) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	assignments, err := config.ResolveAssignments(opts.Load)
	if err != nil {
		return err
	}

	logger.Info("Entrypoint starting: web port %d, http port %d, models %s",
		cfg.WebPort, cfg.HTTPPort, assignments.LoadArg())

	sup := supervisor.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Forward termination signals to the children so the container can be
	// stopped cleanly from outside.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			logger.Info("Received signal %v", sig)
			cancel()
			sup.Signal(sig)
		}
	}()
	defer signal.Stop(sigChan)

	primary, err := sup.Start(buildPrimarySpec(cfg, assignments, opts))
	if err != nil {
		return err
	}
	logger.Info("Primary application pid: %d", primary.PID())

	if opts.WithAPI {
		if err := awaitPrimaryReady(ctx, cfg, primary, opts.ReadyTimeout, sup); err != nil {
			return err
		}

		executable, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate own executable: %w", err)
		}
		apiProc, err := sup.Start(buildAPISpec(cfg, executable))
		if err != nil {
			// The primary is already running; bring it down rather than
			// leaving a half-started container.
			sup.Signal(syscall.SIGTERM)
			sup.Wait()
			return err
		}
		logger.Info("API sidecar pid: %d", apiProc.PID())
	}

	if err := sup.Wait(); err != nil {
		return fmt.Errorf("supervised process failure: %w", err)
	}
	logger.Info("All processes exited cleanly")
	return nil
}

// awaitPrimaryReady gates sidecar startup on the primary application
// accepting connections. It fails distinctly when the primary exits
// before ever becoming ready, and tears the primary down when the
// readiness deadline passes.
func awaitPrimaryReady(ctx context.Context, cfg *config.Config, primary *supervisor.Process,
	timeout time.Duration, sup *supervisor.Supervisor) error {

	addr := fmt.Sprintf("localhost:%d", cfg.WebPort)
	readyErr := make(chan error, 1)
	go func() {
		readyErr <- readiness.WaitForTCP(ctx, addr, timeout, 0)
	}()

	select {
	case <-primary.Done():
		if perr := primary.Err(); perr != nil {
			return fmt.Errorf("application exited before becoming ready: %w", perr)
		}
		return fmt.Errorf("application exited before becoming ready")
	case err := <-readyErr:
		if err != nil {
			sup.Signal(syscall.SIGTERM)
			sup.Wait()
			return fmt.Errorf("application readiness check failed: %w", err)
		}
	}
	return nil
}
