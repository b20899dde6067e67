package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var ErrUnauthorized = errors.New("not authorized")

// Client wraps the admin HTTP API. It logs in lazily with the configured
// credentials and keeps the bearer token for later calls.
type Client struct {
	baseURL  string
	username string
	password string

	mu    sync.Mutex
	token string

	http *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.Logger = nil

	return &Client{baseURL: baseURL, username: username, password: password, http: retryClient.StandardClient()}
}

// SetCredentials replaces the login credentials and forgets any token.
func (c *Client) SetCredentials(baseURL, username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL, c.username, c.password, c.token = baseURL, username, password, ""
}

func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	body := map[string]string{"username": c.username, "password": c.password}
	c.mu.Unlock()
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.raw(ctx, http.MethodPost, "/api/v1/admin/auth/login", "", body, &resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = resp.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var out []Server
	return out, c.do(ctx, http.MethodGet, "/api/v1/admin/servers", nil, &out)
}

func (c *Client) ListAlerts(ctx context.Context, serverID int64) ([]Alert, error) {
	var resp struct {
		Alerts []Alert `json:"alerts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/alerts?server_id="+strconv.FormatInt(serverID, 10), nil, &resp)
	return resp.Alerts, err
}

func (c *Client) DeleteAlert(ctx context.Context, serverID int64, filename string) (*Queued, error) {
	var out Queued
	path := "/api/v1/admin/alerts/" + url.PathEscape(filename) + "?server_id=" + strconv.FormatInt(serverID, 10)
	return &out, c.do(ctx, http.MethodDelete, path, nil, &out)
}

func (c *Client) SendCommand(ctx context.Context, req SendCommandRequest) (*Queued, error) {
	var out Queued
	return &out, c.do(ctx, http.MethodPost, "/api/v1/admin/commands/send", req, &out)
}

func (c *Client) ListCommands(ctx context.Context, serverID int64, status string) ([]Command, error) {
	q := url.Values{}
	q.Set("server_id", strconv.FormatInt(serverID, 10))
	if status != "" {
		q.Set("status", status)
	}
	var out []Command
	return out, c.do(ctx, http.MethodGet, "/api/v1/admin/commands?"+q.Encode(), nil, &out)
}

func (c *Client) GetCommand(ctx context.Context, id int64) (*CommandDetail, error) {
	var out CommandDetail
	return &out, c.do(ctx, http.MethodGet, "/api/v1/admin/commands/"+strconv.FormatInt(id, 10), nil, &out)
}

// --- internal ---

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		if err := c.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		c.mu.Lock()
		token = c.token
		c.mu.Unlock()
	}
	return c.raw(ctx, method, path, token, in, out)
}

func (c *Client) raw(ctx context.Context, method, path, token string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	c.mu.Lock()
	base := c.baseURL
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, method, base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiError(respBody, resp.StatusCode))
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, path, apiError(respBody, resp.StatusCode))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func apiError(body []byte, status int) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Sprintf("%d %s", status, e.Error)
	}
	return fmt.Sprintf("status %d", status)
}
