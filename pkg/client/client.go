// Package client talks to a crnsim server and builds network definitions
// with a fluent API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daniacca/crnsim/internal/crn"
)

// ErrNotFound is returned when the server does not know a run ID.
var ErrNotFound = errors.New("client: not found")

// RunFaultError is returned by Run when the simulation started but stopped
// before the horizon. Response holds the partial result.
type RunFaultError struct {
	Response *crn.RunResponse
}

func (e *RunFaultError) Error() string {
	return "run " + e.Response.Summary.ID + " faulted: " + e.Response.Summary.Error
}

// MethodInfo describes one simulation method offered by the server.
type MethodInfo struct {
	Name   crn.Method `json:"name"`
	Hybrid bool       `json:"hybrid"`
}

// Client is a crnsim HTTP client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, nil, "healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

// Methods lists the simulation methods the server offers.
func (c *Client) Methods(ctx context.Context) ([]MethodInfo, error) {
	var out []MethodInfo
	if err := c.getJSON(ctx, &out, "methods"); err != nil {
		return nil, err
	}
	return out, nil
}

// Run simulates req.Network on the server. A run that faults returns a
// *RunFaultError carrying the partial result.
func (c *Client) Run(ctx context.Context, req crn.RunRequest) (*crn.RunResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, body, "runs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusUnprocessableEntity:
		var out crn.RunResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode run response: %w", err)
		}
		if resp.StatusCode == http.StatusUnprocessableEntity {
			return &out, &RunFaultError{Response: &out}
		}
		return &out, nil
	default:
		return nil, statusError(resp)
	}
}

// ListRuns returns every run the server keeps, oldest first.
func (c *Client) ListRuns(ctx context.Context) ([]crn.RunSummary, error) {
	var out []crn.RunSummary
	if err := c.getJSON(ctx, &out, "runs"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns one run summary.
func (c *Client) GetRun(ctx context.Context, id string) (crn.RunSummary, error) {
	var out crn.RunSummary
	err := c.getJSON(ctx, &out, "runs", id)
	return out, err
}

// DeleteRun makes the server forget a run.
func (c *Client) DeleteRun(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, nil, "runs", id)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusNoContent)
}

func (c *Client) getJSON(ctx context.Context, v any, path ...string) error {
	resp, err := c.do(ctx, http.MethodGet, nil, path...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, path ...string) (*http.Response, error) {
	u, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	return statusError(resp)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	msg := strings.TrimSpace(string(body))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, msg)
}
