package apiclient

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

	"github.com/johnquangdev/meeting-sync/pkg/retry"
)

// Client performs JSON requests against one upstream API and reports failures
// with the service name, e.g. "Notion API HTTP 400: ...".
type Client struct {
	service string
	baseURL string
	http    *http.Client
	header  http.Header
}

// New creates a client. A nil httpClient gets a default one with timeout.
func New(service, baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		header:  http.Header{},
	}
}

// WithHeader sets a header sent on every request
func (c *Client) WithHeader(key, value string) *Client {
	c.header.Set(key, value)
	return c
}

// Service returns the upstream name used in error messages
func (c *Client) Service() string {
	return c.service
}

// DoJSON sends body (when non-nil) as JSON and decodes the reply into out.
// extra headers override the client defaults for this call only.
func (c *Client) DoJSON(ctx context.Context, method, path string, extra http.Header, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", c.service, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", c.service, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	for k, v := range extra {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return errors.New(c.service + " API request timed out.")
		}
		return fmt.Errorf("%s API connection error: %w", c.service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s API connection error: %w", c.service, err)
	}
	if resp.StatusCode >= 300 {
		return &retry.StatusError{Service: c.service, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.New(c.service + " API returned invalid JSON.")
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// Truncate shortens value to limit runes, ending with "..."
func Truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
