// Package handlers implements the HTTP handlers for the tmx API sidecar.
//
// The sidecar wraps the Gradio web application with a small REST surface:
// health and info reporting plus a message endpoint that verifies the
// Gradio service before directing the caller to it. Handlers translate
// Gradio reachability failures into 503 responses with a structured error
// body; they never crash on malformed input.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/taskmatrix/tmx/internal/api"
	"github.com/taskmatrix/tmx/internal/client"
	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/logger"
)

// Handler holds the dependencies shared by all sidecar endpoints.
type Handler struct {
	cfg     *config.Config
	gradio  *client.GradioClient
	version string
}

// NewHandler creates a handler set for the given configuration.
//
// Parameters:
//   - cfg: port and host configuration
//   - gradio: client for the wrapped Gradio application
//   - version: sidecar version string reported by health/info
func NewHandler(cfg *config.Config, gradio *client.GradioClient, version string) *Handler {
	return &Handler{
		cfg:     cfg,
		gradio:  gradio,
		version: version,
	}
}

// Health handles GET /health.
//
// Reports the sidecar's status along with both configured ports. The
// sidecar itself answering is the health signal; Gradio reachability is
// reported separately by the message endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:     "healthy",
		Service:    api.ServiceName,
		Version:    h.version,
		GradioPort: h.cfg.WebPort,
		HTTPPort:   h.cfg.HTTPPort,
	})
}

// Root handles GET / with an index of available endpoints.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, api.RootResponse{
		Name:        api.ServiceName,
		Version:     h.version,
		Description: api.ServiceDescription,
		Endpoints: map[string]string{
			"health":  "/health",
			"info":    "/info",
			"message": "/api/message (POST)",
			"gradio":  h.gradio.BaseURL(),
		},
	})
}

// Info handles GET /info with deployment details and the capability list.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, api.InfoResponse{
		Service:      api.ServiceName,
		Version:      h.version,
		GradioHost:   h.cfg.GradioHost,
		GradioPort:   h.cfg.WebPort,
		HTTPPort:     h.cfg.HTTPPort,
		Capabilities: client.Tools(),
	})
}

// Message handles POST /api/message.
//
// The endpoint validates the request, verifies the Gradio application is
// reachable, and returns a pointer to the interactive interface. Gradio
// has no first-class REST chat API, so the sidecar does not proxy the
// conversation itself.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := h.gradio.CheckConnection(); err != nil {
		logger.Warn("Message request rejected, gradio unreachable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, api.MessageResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, api.MessageResponse{
		Success: true,
		Reply: "TaskMatrix Visual ChatGPT is running. Access the Gradio interface at " +
			h.gradio.BaseURL(),
	})
}

// writeJSON serializes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// writeError sends a standard error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
