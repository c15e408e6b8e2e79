// Package llm holds the HTTP transport shared by the answer generator
// adapters.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBodyInError = 512

// Envelope is implemented by response types that carry a provider error
// message alongside the payload.
type Envelope interface {
	ErrorMessage() string
}

// APIError is a failure reported by the provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusOK {
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Client posts JSON to one provider.
type Client struct {
	Provider string
	BaseURL  string
	Header   http.Header

	http *http.Client
}

// NewClient creates a client for provider rooted at baseURL.
func NewClient(provider, baseURL string, timeout time.Duration) *Client {
	return &Client{
		Provider: provider,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Header:   make(http.Header),
		http:     &http.Client{Timeout: timeout},
	}
}

// PostJSON sends in to path and decodes the response into out. An error
// message in the envelope wins over the HTTP status.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}

	decodeErr := json.Unmarshal(body, out)
	if env, ok := out.(Envelope); ok && decodeErr == nil {
		if msg := env.ErrorMessage(); msg != "" {
			return &APIError{Provider: c.Provider, StatusCode: status, Message: msg}
		}
	}
	if status != http.StatusOK {
		return &APIError{Provider: c.Provider, StatusCode: status, Message: truncate(body)}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

// Ping issues a GET to path and expects a 200.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create ping request: %w", c.Provider, err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.Provider, err)
	}
	if status != http.StatusOK {
		return &APIError{Provider: c.Provider, StatusCode: status, Message: truncate(body)}
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	for key, values := range c.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func truncate(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBodyInError {
		return msg[:maxBodyInError] + "..."
	}
	if msg == "" {
		return "empty response"
	}
	return msg
}
