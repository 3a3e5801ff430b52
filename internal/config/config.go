// Package config provides configuration management for the tmx application.
//
// This package handles all configuration-related functionality including:
//   - Port configuration for the Gradio web UI and the REST API sidecar
//   - Environment variable overrides used inside the container
//   - Model/device assignment lists for the application's --load flag
//   - Default paths for the launcher's bind mounts and image recipe
//
// The same Config type is used on both sides of the container boundary:
// the launcher derives port publications and container environment from it,
// and the entrypoint reads it back from that environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// DefaultWebPort is the default port the Gradio web application binds.
	// This matches the port declared by the image recipe's EXPOSE directive.
	DefaultWebPort = 11220

	// DefaultHTTPPort is the default port for the REST API sidecar.
	DefaultHTTPPort = 8000

	// DefaultGradioHost is the host used to reach the Gradio application
	// from the sidecar. Both processes share a network namespace, so
	// localhost is correct inside the container.
	DefaultGradioHost = "localhost"

	// EnvWebPort is the environment variable overriding the web UI port.
	EnvWebPort = "WEB_PORT"

	// EnvHTTPPort is the environment variable overriding the API port.
	EnvHTTPPort = "HTTP_PORT"

	// EnvGradioHost is the environment variable overriding the Gradio host.
	EnvGradioHost = "GRADIO_HOST"

	// DefaultImageTag is the image tag built and run by the launcher.
	DefaultImageTag = "taskmatrix:latest"

	// DefaultContainerName is the fixed name of the launched container.
	// Container names are unique per daemon, so a second launch while one
	// is running fails with a name conflict rather than silently starting
	// a duplicate deployment.
	DefaultContainerName = "taskmatrix"

	// DefaultContextDir is the default image build context directory.
	DefaultContextDir = "deploy"

	// DefaultCheckpointsDir is the host directory holding model weights.
	DefaultCheckpointsDir = "./checkpoints"

	// DefaultAssetsDir is the host directory holding static assets.
	DefaultAssetsDir = "./assets"

	// ContainerCheckpointsPath is where the checkpoints mount appears
	// inside the container.
	ContainerCheckpointsPath = "/app/checkpoints"

	// ContainerAssetsPath is where the assets mount appears inside the
	// container.
	ContainerAssetsPath = "/app/assets"
)

// Config holds the runtime configuration shared by the entrypoint
// supervisor and the REST API sidecar.
type Config struct {
	// WebPort is the port the Gradio web application listens on.
	// Passed to the application as its --port flag.
	WebPort int `json:"web_port"`

	// HTTPPort is the port the REST API sidecar listens on.
	// Distinct from WebPort; the two listeners never share a port.
	HTTPPort int `json:"http_port"`

	// GradioHost is the host the sidecar uses to reach the Gradio app.
	GradioHost string `json:"gradio_host"`
}

// NewDefaultConfig returns a Config populated with default values:
// Gradio on 11220, API sidecar on 8000, both reachable via localhost.
func NewDefaultConfig() *Config {
	return &Config{
		WebPort:    DefaultWebPort,
		HTTPPort:   DefaultHTTPPort,
		GradioHost: DefaultGradioHost,
	}
}

// FromEnv builds a Config from the process environment.
//
// WEB_PORT and HTTP_PORT override the respective defaults when set.
// A set-but-invalid port value is an error rather than a silent fallback,
// since a typo here would otherwise surface much later as a connection
// refused against the wrong port.
//
// Returns:
//   - Config with env overrides applied
//   - Error if a port variable is set to a non-numeric or out-of-range value
func FromEnv() (*Config, error) {
	cfg := NewDefaultConfig()

	webPort, err := portFromEnv(EnvWebPort, DefaultWebPort)
	if err != nil {
		return nil, err
	}
	cfg.WebPort = webPort

	httpPort, err := portFromEnv(EnvHTTPPort, DefaultHTTPPort)
	if err != nil {
		return nil, err
	}
	cfg.HTTPPort = httpPort

	if host := os.Getenv(EnvGradioHost); host != "" {
		cfg.GradioHost = host
	}

	return cfg, nil
}

// GradioURL returns the base URL of the Gradio application.
// Format: "http://host:port"
func (c *Config) GradioURL() string {
	return fmt.Sprintf("http://%s:%d", c.GradioHost, c.WebPort)
}

// portFromEnv reads a port number from the named environment variable,
// returning def when the variable is unset or empty.
func portFromEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid %s value %d: must be between 1-65535", name, port)
	}
	return port, nil
}
