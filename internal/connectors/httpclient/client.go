// Package httpclient is the rate-limited, retrying HTTP client shared by
// every catalog connector.
package httpclient

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
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAttempts is the number of tries per request.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the first backoff delay.
	DefaultBaseDelay = time.Second

	// DefaultMaxDelay caps backoff and Retry-After waits.
	DefaultMaxDelay = 10 * time.Second

	// DefaultUserAgent identifies the crawler to remote portals.
	DefaultUserAgent = "lexgate/1.0 (legal research indexer)"

	// DefaultMaxBodyBytes bounds a single payload.
	DefaultMaxBodyBytes = 64 << 20

	snippetRunes = 200

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// Config tunes a Client.
type Config struct {
	// RPS is the sustained request rate. Zero disables limiting.
	RPS float64

	// Burst is the token bucket size. Defaults to 1.
	Burst int

	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
	UserAgent   string

	// Headers are added to every request.
	Headers map[string]string

	// MaxBodyBytes rejects larger payloads instead of truncating them.
	MaxBodyBytes int64
}

// ErrBodyTooLarge is returned for a payload above Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Client performs GET and POST requests with per-source rate limiting and
// bounded exponential backoff.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	URL         string
}

// New creates a client. A nil httpClient uses a fresh client with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cfg:     cfg,
	}
}

// Get downloads url.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

// PostForm sends an urlencoded form and asks for accept.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, accept string) (*Response, error) {
	encoded := form.Encode()
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		return req, nil
	})
}

// PostJSON sends body as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// Do runs the request built by build, retrying transient failures.
// build is invoked once per attempt so request bodies are fresh.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.cfg.UserAgent)
		}
		for k, v := range c.cfg.Headers {
			if req.Header.Get(k) == "" {
				req.Header.Set(k, v)
			}
		}

		resp, retryAfter, err := c.once(req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !domain.IsTransient(err) {
			return nil, err
		}

		lastErr = err
		if attempt == c.cfg.MaxAttempts {
			break
		}

		delay := c.backoff(attempt, retryAfter)
		logger.Debug("retrying %s %s in %s (attempt %d/%d): %v",
			req.Method, req.URL, delay, attempt+1, c.cfg.MaxAttempts, err)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// once performs a single attempt. Transient failures are returned as
// *domain.TransientFetchError together with any Retry-After hint.
func (c *Client) once(req *http.Request) (*Response, time.Duration, error) {
	target := req.URL.String()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &domain.TransientFetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, 0, &domain.TransientFetchError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return nil, 0, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, target, c.cfg.MaxBodyBytes)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get(HeaderRetryAfter)),
			&domain.TransientFetchError{URL: target, StatusCode: resp.StatusCode, Err: domain.ErrRateLimited}
	case resp.StatusCode >= 500:
		return nil, 0, &domain.TransientFetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server error: %s", snippet(body)),
		}
	case resp.StatusCode >= 400:
		return nil, 0, &APIError{URL: target, StatusCode: resp.StatusCode, Message: snippet(body)}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		URL:         target,
	}, 0, nil
}

func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := c.cfg.BaseDelay << (attempt - 1)
	if retryAfter > 0 {
		delay = retryAfter
	}
	if delay > c.cfg.MaxDelay {
		delay = c.cfg.MaxDelay
	}
	return delay
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// snippet shortens an error body on a rune boundary.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) > snippetRunes {
		s = string([]rune(s)[:snippetRunes]) + "..."
	}
	return s
}

// APIError is a permanent (non-retryable) 4xx response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsPermanent reports whether err is a non-retryable API error.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, domain.ErrNotFound)
}
