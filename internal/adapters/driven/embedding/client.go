package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the JSON-over-HTTP transport the providers share. Every failure
// it returns is classified with StatusError or TransportError.
type Client struct {
	Provider string
	BaseURL  string

	// Header is sent with every request, typically the credentials.
	Header http.Header

	http *http.Client
}

// NewClient creates a client for provider rooted at baseURL.
func NewClient(provider, baseURL string, timeout time.Duration) *Client {
	return &Client{
		Provider: provider,
		BaseURL:  baseURL,
		Header:   make(http.Header),
		http:     &http.Client{Timeout: timeout},
	}
}

// PostJSON sends in to path and decodes a 200 response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.Provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Provider, err)
	}
	return nil
}

// Ping issues a GET to path and expects a 200. Providers point it at a
// listing endpoint that runs no inference.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create ping request: %w", c.Provider, err)
	}
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	for key, values := range c.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, TransportError(c.Provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransportError(c.Provider, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusError(c.Provider, resp.StatusCode, body)
	}
	return body, nil
}
