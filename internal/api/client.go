package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"syscall"
	"time"

	"github.com/philtems/colorwarm/internal/colortemp"
	"github.com/philtems/colorwarm/internal/status"
)

// ErrNoAgent is returned when nothing listens on the control address
var ErrNoAgent = errors.New("no running agent")

// Error is a non-success answer from the control API
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("agent returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running agent's control API
type Client interface {
	// Health checks if an agent is listening
	Health(ctx context.Context) error

	// Do runs a command on the agent
	Do(ctx context.Context, req colortemp.Request) (colortemp.Result, error)

	// Status returns the agent's last published snapshot
	Status(ctx context.Context) (status.Snapshot, error)
}

type httpClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a control API client for addr (host:port)
func NewClient(addr string, logger *slog.Logger) Client {
	return &httpClient{
		baseURL: "http://" + addr,
		httpClient: &http.Client{
			Timeout: commandTimeout + 5*time.Second,
		},
		logger: logger,
	}
}

// Health checks if an agent is listening
func (c *httpClient) Health(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return nil
}

// Do runs a command on the agent. A result with per-output failures is
// returned together with the error.
func (c *httpClient) Do(ctx context.Context, req colortemp.Request) (colortemp.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return colortemp.Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Debug("Forwarding command to agent", "action", req.Action, "url", c.baseURL)

	resp, err := c.send(ctx, http.MethodPost, "/api/command", body)
	if err != nil {
		return colortemp.Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res colortemp.Result
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return colortemp.Result{}, fmt.Errorf("failed to decode response: %w", err)
		}
		return res, nil
	case http.StatusMultiStatus:
		var res errorResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return colortemp.Result{}, fmt.Errorf("failed to decode response: %w", err)
		}
		return res.Result, &Error{StatusCode: resp.StatusCode, Message: res.Error}
	default:
		return colortemp.Result{}, readError(resp)
	}
}

// Status returns the agent's last published snapshot
func (c *httpClient) Status(ctx context.Context) (status.Snapshot, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return status.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return status.Snapshot{}, readError(resp)
	}

	var snap status.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return status.Snapshot{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return snap, nil
}

func (c *httpClient) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w at %s", ErrNoAgent, c.baseURL)
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return resp, nil
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error string `json:"error"`
	}
	msg := string(bytes.TrimSpace(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &Error{StatusCode: resp.StatusCode, Message: msg}
}
