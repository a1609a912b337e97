// ABOUTME: HTTP request helper shared by the provider and Toggl adapters
// ABOUTME: Applies auth, bounded timeouts, JSON codecs, and error classification
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

// Client is a thin JSON-over-HTTP client bound to one backend base URL.
type Client struct {
	base string
	auth func(*http.Request)
	http *http.Client
}

// New creates a client for base. auth is applied to every request and may
// be nil for unauthenticated backends.
func New(base string, auth func(*http.Request)) *Client {
	return &Client{
		base: base,
		auth: auth,
		http: &http.Client{Timeout: requestTimeout},
	}
}

// Do sends one request. body (if non-nil) is JSON-encoded; out (if non-nil)
// receives the decoded JSON response. Transport failures map to ErrNetwork,
// HTTP failures go through the shared taxonomy.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, string(payload))
	}

	if out != nil && len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Get performs a read with a single retry on transport failure. Reads are
// idempotent so the retry is safe; writes never retry automatically.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	err := c.Do(ctx, http.MethodGet, path, nil, out)
	if errors.Is(err, ErrNetwork) {
		err = c.Do(ctx, http.MethodGet, path, nil, out)
	}
	return err
}
