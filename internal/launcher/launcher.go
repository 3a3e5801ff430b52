// Package launcher manages the TaskMatrix container on the host side.
//
// It wraps the Docker Engine API to build the application image, start the
// single named deployment container with GPU access, port publications and
// data mounts, and stop or stream logs from it. The launcher manages
// exactly one container under a fixed name; starting a second while one is
// running surfaces the daemon's name-conflict error rather than silently
// succeeding.
package launcher

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/logger"
)

// stopTimeoutSeconds is the grace period for container shutdown before the
// daemon escalates to SIGKILL.
const stopTimeoutSeconds = 30

// RunOptions describes the container to launch.
type RunOptions struct {
	// Image is the image tag to run (e.g. "taskmatrix:latest").
	Image string

	// Name is the container name. Unique per daemon.
	Name string

	// WebPort is the port published for the Gradio web UI. The same value
	// is passed into the container as WEB_PORT so the published port and
	// the application's bound port always agree.
	WebPort int

	// HTTPPort is the port published for the REST API sidecar, passed in
	// as HTTP_PORT.
	HTTPPort int

	// CheckpointsDir is the host directory with model weights, mounted
	// read/write at the container's checkpoints path.
	CheckpointsDir string

	// AssetsDir is the host directory with static assets, mounted
	// read/write at the container's assets path.
	AssetsDir string

	// GPUs requests visibility of all GPU devices inside the container.
	GPUs bool

	// LoadArg overrides the container's model/device assignments via the
	// TMX_MODELS environment variable. Empty keeps the image default.
	LoadArg string
}

// Launcher provides container lifecycle operations for the deployment.
//
// Thread-safety: the underlying Docker client is safe for concurrent use,
// and the Launcher carries no mutable state of its own.
type Launcher struct {
	client *client.Client
}

// New creates a launcher connected to the local Docker daemon.
//
// The client respects DOCKER_HOST, DOCKER_TLS_VERIFY and DOCKER_CERT_PATH,
// negotiates the API version, and verifies daemon connectivity with a
// 5-second timeout before returning.
func New() (*Launcher, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("Docker daemon is not accessible: %w", err)
	}

	return &Launcher{client: cli}, nil
}

// Close releases the Docker client connection.
func (l *Launcher) Close() error {
	return l.client.Close()
}

// Run creates and starts the deployment container.
//
// The container is created with auto-removal on exit, so the daemon cleans
// it up once the entrypoint supervisor terminates. Mount sources are
// resolved to absolute paths as the Engine API requires.
//
// Returns:
//   - The created container ID
//   - Error if creation fails (including a name conflict with a running
//     instance) or the container cannot be started
func (l *Launcher) Run(ctx context.Context, opts RunOptions) (string, error) {
	containerConfig, err := buildContainerConfig(opts)
	if err != nil {
		return "", err
	}
	hostConfig, err := buildHostConfig(opts)
	if err != nil {
		return "", err
	}

	logger.Info("Creating container %s from image %s", opts.Name, opts.Image)

	resp, err := l.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %q (is another instance running?): %w",
			opts.Name, err)
	}

	if err := l.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	logger.Info("Container started: %s (%s)", opts.Name, resp.ID[:12])

	return resp.ID, nil
}

// Stop gracefully stops the named container.
//
// The daemon sends SIGTERM and escalates to SIGKILL after the grace
// period. With auto-removal enabled the container is also removed.
func (l *Launcher) Stop(ctx context.Context, name string) error {
	logger.Info("Stopping container: %s", name)

	timeout := stopTimeoutSeconds
	if err := l.client.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}

	logger.Info("Container stopped: %s", name)
	return nil
}

// Logs streams logs from the named container.
//
// The returned stream is Docker's multiplexed stdout/stderr format and
// must be demultiplexed by the caller (stdcopy). The caller must close
// the stream.
//
// Parameters:
//   - ctx: cancellation and timeout control
//   - name: container name or ID
//   - follow: stream new logs continuously when true
func (l *Launcher) Logs(ctx context.Context, name string, follow bool) (io.ReadCloser, error) {
	reader, err := l.client.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Timestamps: false,
		Tail:       "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}
	return reader, nil
}

// buildContainerConfig assembles the container-side configuration:
// environment, exposed ports and identifying labels.
func buildContainerConfig(opts RunOptions) (*container.Config, error) {
	env := []string{
		fmt.Sprintf("%s=%d", config.EnvWebPort, opts.WebPort),
		fmt.Sprintf("%s=%d", config.EnvHTTPPort, opts.HTTPPort),
	}
	if opts.GPUs {
		env = append(env, "NVIDIA_VISIBLE_DEVICES=all", "NVIDIA_DRIVER_CAPABILITIES=compute,utility")
	}
	if opts.LoadArg != "" {
		env = append(env, fmt.Sprintf("%s=%s", config.EnvModels, opts.LoadArg))
	}

	exposedPorts := nat.PortSet{}
	for _, p := range []int{opts.WebPort, opts.HTTPPort} {
		port, err := nat.NewPort("tcp", fmt.Sprintf("%d", p))
		if err != nil {
			return nil, fmt.Errorf("invalid port %d: %w", p, err)
		}
		exposedPorts[port] = struct{}{}
	}

	return &container.Config{
		Image:        opts.Image,
		Env:          env,
		ExposedPorts: exposedPorts,
		Labels: map[string]string{
			"tmx.deployment": opts.Name,
			"tmx.image":      opts.Image,
		},
	}, nil
}

// buildHostConfig assembles the host-side configuration: port bindings,
// bind mounts, GPU device requests and auto-removal.
func buildHostConfig(opts RunOptions) (*container.HostConfig, error) {
	portBindings := nat.PortMap{}
	for _, p := range []int{opts.WebPort, opts.HTTPPort} {
		port, err := nat.NewPort("tcp", fmt.Sprintf("%d", p))
		if err != nil {
			return nil, fmt.Errorf("invalid port %d: %w", p, err)
		}
		portBindings[port] = []nat.PortBinding{
			{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", p)},
		}
	}

	mounts, err := buildMounts(opts)
	if err != nil {
		return nil, err
	}

	hostConfig := &container.HostConfig{
		PortBindings: portBindings,
		Mounts:       mounts,
		NetworkMode:  "bridge",
		AutoRemove:   true,
	}

	if opts.GPUs {
		hostConfig.Resources = container.Resources{
			DeviceRequests: []container.DeviceRequest{
				{
					Driver:       "nvidia",
					Count:        -1, // all devices
					Capabilities: [][]string{{"gpu"}},
				},
			},
		}
	}

	return hostConfig, nil
}

// buildMounts resolves the checkpoints and assets directories to absolute
// paths and maps them into the container.
func buildMounts(opts RunOptions) ([]mount.Mount, error) {
	binds := []struct {
		src, dst string
	}{
		{opts.CheckpointsDir, config.ContainerCheckpointsPath},
		{opts.AssetsDir, config.ContainerAssetsPath},
	}

	mounts := make([]mount.Mount, 0, len(binds))
	for _, b := range binds {
		if b.src == "" {
			continue
		}
		abs, err := filepath.Abs(b.src)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mount path %s: %w", b.src, err)
		}
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: abs,
			Target: b.dst,
		})
	}
	return mounts, nil
}
