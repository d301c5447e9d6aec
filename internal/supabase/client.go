// Package supabase is a minimal HTTP client for the Supabase REST (PostgREST) and
// Storage APIs, authenticated with a service role key.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultHTTPTimeout = 30 * time.Second

	RESTPath    = "/rest/v1"
	StoragePath = "/storage/v1"
)

// Client is a simple HTTP client for one Supabase project.
type Client struct {
	baseURL    string
	http       *http.Client
	serviceKey string
}

// NewClient creates a client for the project at baseURL.
// A non-positive timeout selects DefaultHTTPTimeout.
func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:       &http.Client{Timeout: timeout, Transport: loggingTransport{}},
		serviceKey: strings.TrimSpace(serviceKey),
	}
}

// BaseURL returns the project URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DoJSON sends body encoded as JSON and decodes a JSON response into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, header http.Header, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
		if header == nil {
			header = http.Header{}
		}
		header.Set("Content-Type", "application/json")
	}
	return c.Do(ctx, method, path, query, header, reader, out)
}

// Do sends a request with a raw body. A nil out discards the response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, header http.Header, body io.Reader, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("supabase client is not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	c.setAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.serviceKey == "" || req == nil {
		return
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
}
