package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taskmatrix/tmx/internal/api"
)

// APIClient is an HTTP client for the tmx REST API sidecar.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for the API sidecar at baseURL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Health queries the sidecar health endpoint.
func (c *APIClient) Health() (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.get("/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Info queries the sidecar info endpoint.
func (c *APIClient) Info() (*api.InfoResponse, error) {
	var out api.InfoResponse
	if err := c.get("/info", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs a GET against path and decodes the JSON response into out.
func (c *APIClient) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request to %s failed: %s", path, apiErr.Error)
		}
		return fmt.Errorf("request to %s failed: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
