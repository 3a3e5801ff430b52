// Package client provides HTTP clients for a running TaskMatrix deployment.
//
// Two surfaces are exposed:
//   - GradioClient talks directly to the Gradio web application's HTTP
//     endpoints (connection check, config fingerprint, queue status, text
//     runs, memory clearing)
//   - APIClient talks to the tmx REST API sidecar (health and info)
//
// Both clients handle serialization, status-code checking, and error
// translation so callers work with native Go types.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskmatrix/tmx/internal/api"
)

// Tools lists the tool names the Visual ChatGPT system can load.
//
// The list mirrors the tools registered by the application itself and is
// used for capability reporting; it does not imply every tool is loaded in
// a given deployment.
func Tools() []string {
	return []string{
		"ImageCaptioning",
		"Text2Image",
		"Image2Pose",
		"Pose2Image",
		"Image2Seg",
		"Seg2Image",
		"Image2Depth",
		"Depth2Image",
		"Image2Normal",
		"Normal2Image",
		"VisualQuestionAnswering",
	}
}

// GradioClient is an HTTP client for the Gradio web application.
//
// All methods are safe for concurrent use.
type GradioClient struct {
	// baseURL is the Gradio application base URL.
	// Format: "http://host:port"
	baseURL string

	// httpClient is the underlying HTTP client.
	httpClient *http.Client
}

// NewGradioClient creates a client for the Gradio application at baseURL.
//
// Probe-style requests use short per-request timeouts; run requests allow
// up to a minute since tool invocations are slow.
func NewGradioClient(baseURL string) *GradioClient {
	return &GradioClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// BaseURL returns the Gradio base URL this client targets.
func (c *GradioClient) BaseURL() string {
	return c.baseURL
}

// CheckConnection verifies the Gradio application is serving.
//
// Returns:
//   - nil if the root page responds with HTTP 200
//   - Error describing the connection failure or unexpected status
func (c *GradioClient) CheckConnection() error {
	resp, err := c.httpClient.Get(c.baseURL + "/")
	if err != nil {
		return fmt.Errorf("gradio service unavailable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gradio service not available: status %d", resp.StatusCode)
	}
	return nil
}

// Config retrieves the Gradio application configuration, including the
// instance fingerprint.
func (c *GradioClient) Config() (*api.GradioConfig, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/config")
	if err != nil {
		return nil, fmt.Errorf("failed to get gradio config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get gradio config: status %d", resp.StatusCode)
	}

	var cfg api.GradioConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode gradio config: %w", err)
	}
	return &cfg, nil
}

// QueueStatus retrieves the Gradio request queue status.
//
// The document shape varies across Gradio versions, so it is returned as
// a generic map.
func (c *GradioClient) QueueStatus() (map[string]interface{}, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/queue/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get queue status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get queue status: status %d", resp.StatusCode)
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode queue status: %w", err)
	}
	return status, nil
}

// RunText submits a text-only query to the chat interface.
//
// Parameters:
//   - text: the input query
//   - history: prior conversation turns, as [user, assistant] pairs
//   - lang: "English" or "Chinese"
//
// Returns:
//   - The Gradio function response
//   - Error if the request fails or the server rejects it
func (c *GradioClient) RunText(text string, history [][]string, lang string) (*api.PredictResponse, error) {
	if lang == "" {
		lang = "English"
	}
	hist := make([]interface{}, 0, len(history))
	for _, turn := range history {
		hist = append(hist, turn)
	}

	req := api.PredictRequest{
		Data:        []interface{}{text, hist, lang},
		FnIndex:     1, // run_text in the Gradio app
		SessionHash: sessionHash(),
	}
	var out api.PredictResponse
	if err := c.post("/run/text", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearMemory clears the application's conversation memory.
func (c *GradioClient) ClearMemory() error {
	req := api.PredictRequest{
		Data:        []interface{}{},
		FnIndex:     3, // clear memory in the Gradio app
		SessionHash: sessionHash(),
	}
	return c.post("/run/clear", req, nil)
}

// post sends a JSON request to path and decodes the JSON response into out
// when out is non-nil.
func (c *GradioClient) post(path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request to %s failed: status %d: %s",
			path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// sessionHash produces a per-request session identifier, matching the
// millisecond-timestamp convention of the original client.
func sessionHash() string {
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}
