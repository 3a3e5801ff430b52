package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmatrix/tmx/internal/client"
	"github.com/taskmatrix/tmx/internal/config"
)

func TestHandlerRoutes(t *testing.T) {
	srv := NewServer(config.NewDefaultConfig(), "1.0.0-test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/info", http.StatusOK},
		{http.MethodGet, "/api/message", http.StatusMethodNotAllowed},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAPIClientAgainstHandler(t *testing.T) {
	srv := NewServer(config.NewDefaultConfig(), "1.0.0-test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := client.NewAPIClient(ts.URL)

	health, err := c.Health()
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, config.DefaultWebPort, health.GradioPort)
	assert.Equal(t, config.DefaultHTTPPort, health.HTTPPort)

	info, err := c.Info()
	require.NoError(t, err)
	assert.Equal(t, client.Tools(), info.Capabilities)
}
