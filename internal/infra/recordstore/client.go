package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the hosted record platform over HTTP.
type Client struct {
	baseURL   string
	token     string
	projectID string
	http      *http.Client
	logger    *zap.Logger
}

func NewClient(baseURL, token, projectID string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		projectID: projectID,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With(zap.String("component", "recordstore")),
	}
}

func (c *Client) FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/fetch", table), params)
}

func (c *Client) GetRecordByID(ctx context.Context, table string, id int, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/records/%d/fetch", table, id), params)
}

func (c *Client) CreateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tables/%s/records", table), params)
}

func (c *Client) UpdateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/tables/%s/records", table), params)
}

func (c *Client) DeleteRecord(ctx context.Context, table string, params DeleteParams) (*Response, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tables/%s/records", table), params)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// The platform answers business failures with an envelope and a
	// non-2xx status; only bodies that are not envelopes are errors here.
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error("unexpected record store response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("record store %s %s (status %d): %s", method, path, resp.StatusCode, truncate(string(raw), 256))
	}

	if !out.Success && out.Message == "" && resp.StatusCode >= 300 {
		out.Message = fmt.Sprintf("record store returned status %d", resp.StatusCode)
	}

	return &out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set("X-Project-Id", c.projectID)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
