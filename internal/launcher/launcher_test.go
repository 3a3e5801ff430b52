package launcher

import (
	"path/filepath"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmatrix/tmx/internal/config"
)

func testRunOptions() RunOptions {
	return RunOptions{
		Image:          "taskmatrix:latest",
		Name:           "taskmatrix",
		WebPort:        11220,
		HTTPPort:       8000,
		CheckpointsDir: "./checkpoints",
		AssetsDir:      "./assets",
		GPUs:           true,
	}
}

func TestBuildContainerConfig(t *testing.T) {
	cfg, err := buildContainerConfig(testRunOptions())
	require.NoError(t, err)

	assert.Equal(t, "taskmatrix:latest", cfg.Image)
	assert.Contains(t, cfg.Env, "WEB_PORT=11220")
	assert.Contains(t, cfg.Env, "HTTP_PORT=8000")
	assert.Contains(t, cfg.Env, "NVIDIA_VISIBLE_DEVICES=all")

	assert.Contains(t, cfg.ExposedPorts, nat.Port("11220/tcp"))
	assert.Contains(t, cfg.ExposedPorts, nat.Port("8000/tcp"))

	assert.Equal(t, "taskmatrix", cfg.Labels["tmx.deployment"])
	assert.Equal(t, "taskmatrix:latest", cfg.Labels["tmx.image"])
}

func TestBuildContainerConfigNoGPU(t *testing.T) {
	opts := testRunOptions()
	opts.GPUs = false

	cfg, err := buildContainerConfig(opts)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Env, "NVIDIA_VISIBLE_DEVICES=all")
}

func TestBuildContainerConfigLoadArg(t *testing.T) {
	opts := testRunOptions()
	opts.LoadArg = "ImageCaptioning_cuda:0,Text2Image_cuda:1"

	cfg, err := buildContainerConfig(opts)
	require.NoError(t, err)
	assert.Contains(t, cfg.Env, config.EnvModels+"=ImageCaptioning_cuda:0,Text2Image_cuda:1")
}

func TestBuildContainerConfigCustomWebPort(t *testing.T) {
	opts := testRunOptions()
	opts.WebPort = 9000

	cfg, err := buildContainerConfig(opts)
	require.NoError(t, err)
	assert.Contains(t, cfg.Env, "WEB_PORT=9000")
	assert.Contains(t, cfg.ExposedPorts, nat.Port("9000/tcp"))
}

func TestBuildHostConfigPortBindings(t *testing.T) {
	hc, err := buildHostConfig(testRunOptions())
	require.NoError(t, err)

	// The published host port matches the container port so WEB_PORT and
	// the binding always agree.
	for _, p := range []string{"11220/tcp", "8000/tcp"} {
		bindings, ok := hc.PortBindings[nat.Port(p)]
		require.True(t, ok, "missing binding for %s", p)
		require.Len(t, bindings, 1)
		assert.Equal(t, "0.0.0.0", bindings[0].HostIP)
		assert.Equal(t, nat.Port(p).Port(), bindings[0].HostPort)
	}

	assert.True(t, hc.AutoRemove)
	assert.Equal(t, "bridge", string(hc.NetworkMode))
}

func TestBuildHostConfigGPURequest(t *testing.T) {
	hc, err := buildHostConfig(testRunOptions())
	require.NoError(t, err)

	require.Len(t, hc.Resources.DeviceRequests, 1)
	req := hc.Resources.DeviceRequests[0]
	assert.Equal(t, "nvidia", req.Driver)
	assert.Equal(t, -1, req.Count)
	assert.Equal(t, [][]string{{"gpu"}}, req.Capabilities)
}

func TestBuildHostConfigNoGPURequest(t *testing.T) {
	opts := testRunOptions()
	opts.GPUs = false

	hc, err := buildHostConfig(opts)
	require.NoError(t, err)
	assert.Empty(t, hc.Resources.DeviceRequests)
}

func TestBuildMounts(t *testing.T) {
	mounts, err := buildMounts(testRunOptions())
	require.NoError(t, err)
	require.Len(t, mounts, 2)

	assert.True(t, filepath.IsAbs(mounts[0].Source))
	assert.Equal(t, config.ContainerCheckpointsPath, mounts[0].Target)
	assert.True(t, filepath.IsAbs(mounts[1].Source))
	assert.Equal(t, config.ContainerAssetsPath, mounts[1].Target)
}

func TestBuildMountsSkipsEmpty(t *testing.T) {
	opts := testRunOptions()
	opts.AssetsDir = ""

	mounts, err := buildMounts(opts)
	require.NoError(t, err)
	require.Len(t, mounts, 1)
	assert.Equal(t, config.ContainerCheckpointsPath, mounts[0].Target)
}
