// Package client is a small HTTP client for the devserv API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/loykin/devserv/internal/manager"
	"github.com/loykin/devserv/internal/registry"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

// Client talks to a devserv API server.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080/api"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// IsReachable reports whether the server answers at all.
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
	return resp.StatusCode != http.StatusNotFound
}

// RegisterResult is the register response body.
type RegisterResult struct {
	Config registry.ProcessConfig `json:"config"`
	Start  *manager.StartResult   `json:"start,omitempty"`
}

func (c *Client) Register(ctx context.Context, cfg registry.ProcessConfig, start bool) (RegisterResult, error) {
	body := map[string]any{"config": cfg, "start": start}
	var out RegisterResult
	err := c.postJSON(ctx, "/register", body, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, name string, fields registry.Update, apply bool) (registry.ProcessConfig, error) {
	body := map[string]any{"name": name, "fields": fields, "apply": apply}
	var out registry.ProcessConfig
	err := c.postJSON(ctx, "/update", body, &out)
	return out, err
}

func (c *Client) Start(ctx context.Context, name string) (manager.StartResult, error) {
	var out manager.StartResult
	err := c.postJSON(ctx, "/start?name="+url.QueryEscape(name), nil, &out)
	return out, err
}

func (c *Client) Stop(ctx context.Context, name string) error {
	return c.postJSON(ctx, "/stop?name="+url.QueryEscape(name), nil, nil)
}

func (c *Client) Restart(ctx context.Context, name string) error {
	return c.postJSON(ctx, "/restart?name="+url.QueryEscape(name), nil, nil)
}

func (c *Client) Delete(ctx context.Context, name string, removeFromSupervisor bool) error {
	path := "/processes?name=" + url.QueryEscape(name) + "&supervisor=" + strconv.FormatBool(removeFromSupervisor)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, nil)
}

func (c *Client) Describe(ctx context.Context, name string) (string, error) {
	var out struct {
		Describe string `json:"describe"`
	}
	err := c.getJSON(ctx, "/describe?name="+url.QueryEscape(name), &out)
	return out.Describe, err
}

func (c *Client) Status(ctx context.Context) ([]manager.ProcessStatus, error) {
	var out []manager.ProcessStatus
	err := c.getJSON(ctx, "/status", &out)
	return out, err
}

func (c *Client) Logs(ctx context.Context, name string, lines int, stream string, fresh bool) (string, error) {
	path := fmt.Sprintf("/logs?name=%s&lines=%d&stream=%s&fresh=%t",
		url.QueryEscape(name), lines, url.QueryEscape(stream), fresh)
	var out struct {
		Logs string `json:"logs"`
	}
	err := c.getJSON(ctx, path, &out)
	return out.Logs, err
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
