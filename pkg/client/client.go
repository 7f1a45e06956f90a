// Package client is the Go client for the harvestd HTTP API. The CLI uses
// it to talk to a running daemon; embedders can use it directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client provides HTTP client functionality to communicate with a harvestd daemon
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8511/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new harvestd API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: config.Timeout},
		logger:  config.Logger,
	}
}

// IsReachable checks if the daemon is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// AddFarm registers a new farm with the daemon
func (c *Client) AddFarm(ctx context.Context, f FarmRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/farms", f)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkOK(resp)
}

// EditFarm updates fields of an existing farm and returns the result
func (c *Client) EditFarm(ctx context.Context, name string, f FarmRequest) (FarmStatus, error) {
	var out FarmStatus
	resp, err := c.do(ctx, http.MethodPost, "/farms/edit?name="+url.QueryEscape(name), f)
	if err != nil {
		return out, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkOK(resp); err != nil {
		return out, err
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

// RemoveFarm removes a farm from tracking
func (c *Client) RemoveFarm(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/farms/remove?name="+url.QueryEscape(name), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkOK(resp)
}

// Status returns one farm's current state
func (c *Client) Status(ctx context.Context, name string) (FarmStatus, error) {
	var out FarmStatus
	resp, err := c.do(ctx, http.MethodGet, "/status?name="+url.QueryEscape(name), nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkOK(resp); err != nil {
		return out, err
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

// Statuses returns every tracked farm
func (c *Client) Statuses(ctx context.Context) ([]FarmStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkOK(resp); err != nil {
		return nil, err
	}
	var out []FarmStatus
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

// ListNames returns farm names matching filter, at most limit
func (c *Client) ListNames(ctx context.Context, filter string, limit int) ([]string, error) {
	path := "/farms?filter=" + url.QueryEscape(filter)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkOK(resp); err != nil {
		return nil, err
	}
	var out []string
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

// Ingest pushes one chat-feed message into the daemon
func (c *Client) Ingest(ctx context.Context, m IngestMessage) error {
	resp, err := c.do(ctx, http.MethodPost, "/ingest", m)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkOK(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func checkOK(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var er ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", er.Error)
}
