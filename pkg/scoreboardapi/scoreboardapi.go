// Package scoreboardapi provides a client for the remote scoreboard persistence endpoint.
package scoreboardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abrezinsky/courtboard/internal/logger"
)

// ErrNotFound is returned by Get when nothing has been posted for the court yet.
var ErrNotFound = errors.New("scoreboard not found")

// Ack is the endpoint's acknowledgement of a POST.
type Ack struct {
	Status  string          `json:"status"`
	CourtID string          `json:"court_id"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client defines the operations against the remote endpoint
type Client interface {
	// Post stores a serialized match for the court. Last write wins.
	Post(ctx context.Context, courtID string, payload []byte) error
	// Get returns the last posted payload, or ErrNotFound.
	Get(ctx context.Context, courtID string) ([]byte, error)
	// BaseURL returns the configured endpoint base URL
	BaseURL() string
}

// HTTPClient is a real HTTP client for the endpoint
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a client with the given request timeout
func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, log)
}

// NewHTTPClientWithHTTPClient creates a client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured endpoint base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) endpoint(courtID string) string {
	return fmt.Sprintf("%s/api/scoreboard/%s", c.baseURL, courtID)
}

// Post sends payload as the court's current match
func (c *HTTPClient) Post(ctx context.Context, courtID string, payload []byte) error {
	url := c.endpoint(courtID)
	c.log.Debug("Scoreboard POST", "url", url, "bytes", len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("scoreboard endpoint returned status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var ack Ack
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ack); err != nil {
			return fmt.Errorf("failed to parse acknowledgement: %w", err)
		}
	}
	return nil
}

// Get fetches the court's last posted match
func (c *HTTPClient) Get(ctx context.Context, courtID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(courtID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("scoreboard endpoint returned status %d: %s", status, strings.TrimSpace(string(body)))
	}
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, ErrNotFound
	}
	return body, nil
}

func (c *HTTPClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reach scoreboard endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debug("Scoreboard response", "method", req.Method, "status", resp.StatusCode, "bytes", len(body))
	return body, resp.StatusCode, nil
}
