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
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnauthorized is returned when the backend rejects the agent key.
var ErrUnauthorized = errors.New("agent key rejected")

type StatusReport struct {
	ServerID     int64            `json:"server_id"`
	RegionID     *uint            `json:"region_id,omitempty"`
	IP           string           `json:"ip"`
	CGMVersion   string           `json:"cgm_version"`
	AdminVersion string           `json:"admin_version"`
	Timestamp    time.Time        `json:"timestamp"`
	RawStatus    *json.RawMessage `json:"raw_status,omitempty"`
}

type Alert struct {
	Severity   string  `json:"severity"`
	Source     string  `json:"source"`
	Alert      string  `json:"alert"`
	Counter    *int    `json:"counter,omitempty"`
	StackTrace *string `json:"stackTrace,omitempty"`
}

type Command struct {
	ID      int64           `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client talks to the backend agent API.
type Client struct {
	baseURL   string
	apiKey    string
	keyHeader string
	http      *http.Client
}

func New(baseURL, apiKey, keyHeader string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil // suppress default logging

	if keyHeader == "" {
		keyHeader = "X-API-Key"
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, keyHeader: keyHeader, http: retryClient.StandardClient()}
}

func (c *Client) ReportStatus(ctx context.Context, rep StatusReport) error {
	return c.do(ctx, http.MethodPost, "/api/v1/agent/status", rep, nil)
}

// ReportAlerts returns the number of alerts the backend stored.
func (c *Client) ReportAlerts(ctx context.Context, serverID int64, alerts []Alert) (int, error) {
	body := struct {
		ServerID int64   `json:"server_id"`
		Alerts   []Alert `json:"alerts"`
	}{serverID, alerts}
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/agent/alerts", body, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) PollCommands(ctx context.Context, serverID int64) ([]Command, error) {
	q := url.Values{}
	q.Set("server_id", strconv.FormatInt(serverID, 10))
	var out []Command
	if err := c.do(ctx, http.MethodGet, "/api/v1/agent/commands?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReportResult(ctx context.Context, commandID int64, status, message string) error {
	body := struct {
		Status  string  `json:"status"`
		Message *string `json:"message,omitempty"`
	}{Status: status}
	if message != "" {
		body.Message = &message
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/agent/commands/%d/result", commandID), body, nil)
}

// --- internal ---

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.keyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
