package rclone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.TransferEngine = (*Client)(nil)

// Default configuration values.
const (
	DefaultAddr              = "localhost:5572"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 20.0
	DefaultBurstSize         = 10
)

// ClientConfig holds configuration for the RC client.
type ClientConfig struct {
	// Addr is the daemon's host:port, or a full base URL.
	Addr string

	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests (default: 20).
	RequestsPerSecond float64

	// BurstSize is the limiter's burst (default: 10).
	BurstSize int

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to a running rclone RC daemon.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// rcResponse is the subset of RC response fields the core consumes.
// job/status returns jobid as "id"; async submissions return "jobid".
type rcResponse struct {
	JobID    int64  `json:"jobid"`
	ID       int64  `json:"id"`
	Finished bool   `json:"finished"`
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Version  string `json:"version"`
}

// NewClient creates a new RC client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:  httpClient,
		baseURL: baseURL(cfg.Addr),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// baseURL turns "host:port" or ":port" into an http URL without a trailing slash.
func baseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + strings.TrimRight(addr, "/")
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call posts req.Params as JSON to the route named by req.Command.
func (c *Client) Call(ctx context.Context, req driven.RCRequest) (*driven.RCResponse, error) {
	if req.Command == "" {
		return nil, fmt.Errorf("rc call: command is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rc %s: %w", req.Command, err)
	}

	params := req.Params
	if params == nil {
		params = map[string]string{}
	}
	jsonBody, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/"+strings.TrimLeft(req.Command, "/"),
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rc %s: send request: %w", req.Command, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rc %s: read response: %w", req.Command, err)
	}

	var decoded rcResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && decoded.Error != "" {
			return nil, fmt.Errorf("rc %s (status %d): %s", req.Command, resp.StatusCode, decoded.Error)
		}
		return nil, fmt.Errorf("rc %s (status %d): %s", req.Command, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("rc %s: decode response: %w", req.Command, decodeErr)
	}

	jobID := decoded.JobID
	if jobID == 0 {
		jobID = decoded.ID
	}
	return &driven.RCResponse{
		JobID:    jobID,
		Finished: decoded.Finished,
		Success:  decoded.Success,
		Error:    decoded.Error,
		Version:  decoded.Version,
	}, nil
}

// Ready returns nil once GET /metrics answers with a 2xx status.
func (c *Client) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("probe metrics: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe metrics: status %d", resp.StatusCode)
	}
	return nil
}
