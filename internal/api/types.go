// Package api defines the API types and contracts for the tmx application.
//
// This package contains the data structures exchanged between the REST API
// sidecar, its clients, and the underlying Gradio application. All types are
// JSON-serializable for HTTP transmission.
package api

// ServiceName is the human-readable service identifier reported by the
// API sidecar.
const ServiceName = "TaskMatrix API"

// ServiceDescription is the one-line service description reported by the
// root endpoint.
const ServiceDescription = "Visual ChatGPT - Multi-Modal AI Assistant"

// MessageRequest is the request body for the message endpoint.
type MessageRequest struct {
	// Message is the text to send to the assistant.
	Message string `json:"message"`

	// Language selects the conversation language.
	// Recognized values: "English" (default), "Chinese".
	Language string `json:"language,omitempty"`
}

// MessageResponse is the response body for the message endpoint.
type MessageResponse struct {
	// Success indicates whether the message was accepted.
	Success bool `json:"success"`

	// Reply is the assistant's reply when Success is true.
	Reply string `json:"reply,omitempty"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	// Status indicates the overall health status.
	// Common values: "healthy", "unhealthy".
	Status string `json:"status"`

	// Service is the service identifier, always ServiceName.
	Service string `json:"service"`

	// Version is the sidecar version string.
	Version string `json:"version"`

	// GradioPort is the port the Gradio web application listens on.
	GradioPort int `json:"gradio_port"`

	// HTTPPort is the port this sidecar listens on.
	HTTPPort int `json:"http_port"`
}

// RootResponse is returned by the root endpoint and indexes the
// available endpoints.
type RootResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// InfoResponse is returned by the info endpoint with deployment details.
type InfoResponse struct {
	Service    string `json:"service"`
	Version    string `json:"version"`
	GradioHost string `json:"gradio_host"`
	GradioPort int    `json:"gradio_port"`
	HTTPPort   int    `json:"http_port"`

	// Capabilities lists the tools the deployment can load.
	Capabilities []string `json:"capabilities"`
}

// ErrorResponse is the standard error format returned by the sidecar.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`

	// Code is an optional machine-readable error code.
	Code string `json:"code,omitempty"`
}

// GradioConfig is the subset of the Gradio /config document the tooling
// cares about. Unknown fields are ignored.
type GradioConfig struct {
	// Fingerprint identifies the running Gradio application instance.
	Fingerprint string `json:"fingerprint"`

	// Version is the Gradio framework version.
	Version string `json:"version,omitempty"`
}

// PredictRequest is the payload posted to the Gradio run endpoints.
type PredictRequest struct {
	// Data carries the positional function arguments.
	Data []interface{} `json:"data"`

	// FnIndex selects the Gradio function to invoke.
	FnIndex int `json:"fn_index"`

	// EventData is unused but expected by the endpoint.
	EventData interface{} `json:"event_data"`

	// SessionHash distinguishes concurrent client sessions.
	SessionHash string `json:"session_hash"`
}

// PredictResponse is the payload returned by the Gradio run endpoints.
type PredictResponse struct {
	// Data carries the positional return values.
	Data []interface{} `json:"data"`

	// Duration is the server-side processing time in seconds.
	Duration float64 `json:"duration,omitempty"`
}
