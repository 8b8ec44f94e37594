// Package backend is the typed HTTP client for the remote freight REST
// backend. All network interaction in the system goes through it; it decodes
// success payloads into entities and non-2xx responses into classified
// APIErrors.
package backend

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

// Config holds backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the remote freight backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client for the configured base URL.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListQuery is the filter/sort/paging body accepted by the backend's
// */GetList endpoints.
type ListQuery struct {
	Select   []string          `json:"select,omitempty"`
	Where    map[string]string `json:"where,omitempty"`
	SortOn   string            `json:"sortOn,omitempty"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"pageSize,omitempty"`
}

// do issues one request and decodes the response into out (which may be nil
// for endpoints whose body the caller does not need).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.baseURL + "/" + strings.TrimPrefix(path, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &APIError{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransport, Message: fmt.Sprintf("read response: %v", err)}
	}

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := parseErrorBody(raw)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			Kind:       classify(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
