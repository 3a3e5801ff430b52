package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmatrix/tmx/internal/config"
)

func entrypointOptsForTest() *EntrypointOptions {
	return &EntrypointOptions{
		GlobalOptions: &GlobalOptions{},
		PythonBin:     "python",
		AppScript:     "visual_chatgpt.py",
	}
}

func TestBuildPrimarySpecDefaultPort(t *testing.T) {
	t.Setenv(config.EnvWebPort, "")
	t.Setenv(config.EnvHTTPPort, "")
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	spec := buildPrimarySpec(cfg, config.DefaultAssignments(), entrypointOptsForTest())

	assert.Equal(t, "visual-chatgpt", spec.Name)
	assert.Equal(t, "python", spec.Command)
	assert.Equal(t, []string{
		"visual_chatgpt.py",
		"--load", "ImageCaptioning_cuda:0,Text2Image_cuda:0",
		"--port", "11220",
	}, spec.Args)
}

func TestBuildPrimarySpecPortFollowsEnv(t *testing.T) {
	t.Setenv(config.EnvWebPort, "9000")
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	spec := buildPrimarySpec(cfg, config.DefaultAssignments(), entrypointOptsForTest())

	require.Len(t, spec.Args, 5)
	assert.Equal(t, "--port", spec.Args[3])
	assert.Equal(t, "9000", spec.Args[4])
}

func TestBuildPrimarySpecCustomAssignments(t *testing.T) {
	cfg := config.NewDefaultConfig()
	asgn, err := config.ParseAssignments("VisualQuestionAnswering_cpu")
	require.NoError(t, err)

	spec := buildPrimarySpec(cfg, asgn, entrypointOptsForTest())
	assert.Contains(t, spec.Args, "VisualQuestionAnswering_cpu")
}

func TestBuildAPISpecPorts(t *testing.T) {
	t.Setenv(config.EnvWebPort, "9000")
	t.Setenv(config.EnvHTTPPort, "9001")
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	spec := buildAPISpec(cfg, "/usr/local/bin/tmx")

	assert.Equal(t, "api", spec.Name)
	assert.Equal(t, "/usr/local/bin/tmx", spec.Command)
	assert.Equal(t, []string{
		"serve",
		"--port", "9001",
		"--gradio-port", "9000",
	}, spec.Args)
}
