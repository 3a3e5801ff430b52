package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmatrix/tmx/internal/client"
	"github.com/taskmatrix/tmx/internal/config"
)

// StatusOptions holds options for the status command
type StatusOptions struct {
	*GlobalOptions

	// GradioURL is the base URL of the Gradio web application.
	GradioURL string

	// APIURL is the base URL of the REST API sidecar.
	APIURL string
}

// NewStatusCommand creates the status command.
//
// The status command summarizes the health of a running deployment: the
// REST API sidecar's health and info endpoints, the Gradio application's
// reachability, its instance fingerprint and its queue status.
//
// Usage:
//
//	tmx status [--url URL] [--api-url URL]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for checking deployment status
func NewStatusCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &StatusOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts)
		},
	}

	cmd.Flags().StringVar(&opts.GradioURL, "url",
		fmt.Sprintf("http://localhost:%d", config.DefaultWebPort),
		"Gradio web application URL")
	cmd.Flags().StringVar(&opts.APIURL, "api-url",
		fmt.Sprintf("http://localhost:%d", config.DefaultHTTPPort),
		"REST API sidecar URL")

	return cmd
}

// runStatus executes the status command logic
func runStatus(opts *StatusOptions) error {
	gradio := client.NewGradioClient(opts.GradioURL)

	fmt.Printf("Gradio (%s):\n", opts.GradioURL)
	if err := gradio.CheckConnection(); err != nil {
		fmt.Printf("  Connection: FAILED (%v)\n", err)
		fmt.Printf("\nMake sure the deployment is running: tmx up\n")
		return nil
	}
	fmt.Printf("  Connection: OK\n")

	if cfg, err := gradio.Config(); err == nil && cfg.Fingerprint != "" {
		fmt.Printf("  Fingerprint: %s\n", cfg.Fingerprint)
	}
	if status, err := gradio.QueueStatus(); err == nil {
		if size, ok := status["queue_size"]; ok {
			fmt.Printf("  Queue size: %v\n", size)
		}
	}

	api := client.NewAPIClient(opts.APIURL)
	fmt.Printf("\nREST API (%s):\n", opts.APIURL)
	health, err := api.Health()
	if err != nil {
		fmt.Printf("  Health: UNAVAILABLE (%v)\n", err)
		return nil
	}
	fmt.Printf("  Health:  %s (version %s)\n", health.Status, health.Version)
	fmt.Printf("  Ports:   gradio=%d http=%d\n", health.GradioPort, health.HTTPPort)

	if info, err := api.Info(); err == nil {
		fmt.Printf("  Capabilities:\n")
		for _, cap := range info.Capabilities {
			fmt.Printf("    - %s\n", cap)
		}
	}
	return nil
}
