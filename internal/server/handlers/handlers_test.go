package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmatrix/tmx/internal/api"
	"github.com/taskmatrix/tmx/internal/client"
	"github.com/taskmatrix/tmx/internal/config"
)

// newTestHandler builds a handler set whose Gradio backend is the given
// fake server. Passing an already-closed server simulates an unreachable
// application.
func newTestHandler(gradioURL string) *Handler {
	cfg := &config.Config{
		WebPort:    11220,
		HTTPPort:   8000,
		GradioHost: "localhost",
	}
	return NewHandler(cfg, client.NewGradioClient(gradioURL), "1.0.0-test")
}

func upGradio(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func downGradio(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv
}

func TestHealth(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, api.ServiceName, resp.Service)
	assert.Equal(t, "1.0.0-test", resp.Version)
	assert.Equal(t, 11220, resp.GradioPort)
	assert.Equal(t, 8000, resp.HTTPPort)
}

func TestHealthMethodNotAllowed(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoot(t *testing.T) {
	gradio := upGradio(t)
	h := newTestHandler(gradio.URL)

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.RootResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, api.ServiceName, resp.Name)
	assert.Equal(t, "/health", resp.Endpoints["health"])
	assert.Equal(t, gradio.URL, resp.Endpoints["gradio"])
}

func TestRootUnknownPath(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInfoReportsCapabilities(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	rec := httptest.NewRecorder()
	h.Info(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.InfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, client.Tools(), resp.Capabilities)
	assert.Equal(t, "localhost", resp.GradioHost)
	assert.Equal(t, 11220, resp.GradioPort)
}

func TestMessageSuccess(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	body := strings.NewReader(`{"message": "generate a picture of a dog"}`)
	rec := httptest.NewRecorder()
	h.Message(rec, httptest.NewRequest(http.MethodPost, "/api/message", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Reply, "Gradio")
}

func TestMessageGradioDown(t *testing.T) {
	h := newTestHandler(downGradio(t).URL)

	body := strings.NewReader(`{"message": "hello"}`)
	rec := httptest.NewRecorder()
	h.Message(rec, httptest.NewRequest(http.MethodPost, "/api/message", body))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp api.MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestMessageValidation(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"empty message", `{"message": ""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Message(rec, httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestMessageMethodNotAllowed(t *testing.T) {
	h := newTestHandler(upGradio(t).URL)

	rec := httptest.NewRecorder()
	h.Message(rec, httptest.NewRequest(http.MethodGet, "/api/message", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
