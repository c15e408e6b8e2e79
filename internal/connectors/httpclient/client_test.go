package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func fastConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

func TestClient_Get(t *testing.T) {
	t.Run("returns body and content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "fr", r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>Art. 1</p>"))
		}))
		defer server.Close()

		client := New(fastConfig(), nil)
		resp, err := client.Get(context.Background(), server.URL, map[string]string{"Accept-Language": "fr"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
		assert.Equal(t, "<p>Art. 1</p>", string(resp.Body))
	})

	t.Run("retries server errors then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		resp, err := New(fastConfig(), nil).Get(context.Background(), server.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", string(resp.Body))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("honours Retry-After on 429", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set(HeaderRetryAfter, "30")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		// MaxDelay caps the 30s hint.
		start := time.Now()
		_, err := New(fastConfig(), nil).Get(context.Background(), server.URL, nil)

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("exhausted retries return transient error", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := New(fastConfig(), nil).Get(context.Background(), server.URL, nil)

		require.Error(t, err)
		assert.True(t, domain.IsTransient(err))
		assert.Equal(t, int32(3), calls.Load())

		var te *domain.TransientFetchError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	})

	t.Run("client errors are permanent and not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := New(fastConfig(), nil).Get(context.Background(), server.URL, nil)

		require.Error(t, err)
		assert.True(t, IsPermanent(err))
		assert.True(t, IsNotFound(err))
		assert.False(t, domain.IsTransient(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("oversized body is rejected once", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(strings.Repeat("x", 65)))
		}))
		defer server.Close()

		cfg := fastConfig()
		cfg.MaxBodyBytes = 64
		_, err := New(cfg, nil).Get(context.Background(), server.URL, nil)

		require.ErrorIs(t, err, ErrBodyTooLarge)
		assert.False(t, domain.IsTransient(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("body at the limit is kept whole", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer server.Close()

		cfg := fastConfig()
		cfg.MaxBodyBytes = 64
		resp, err := New(cfg, nil).Get(context.Background(), server.URL, nil)

		require.NoError(t, err)
		assert.Len(t, resp.Body, 64)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cfg := fastConfig()
		cfg.BaseDelay = time.Hour
		cfg.MaxDelay = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := New(cfg, nil).Get(ctx, server.URL, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_PostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/sparql-results+json", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "SELECT 1", r.PostForm.Get("query"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := New(fastConfig(), nil).PostForm(context.Background(), server.URL,
		url.Values{"query": {"SELECT 1"}}, "application/sparql-results+json")
	require.NoError(t, err)
}

func TestClient_PostJSON(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":3}`))
	}))
	defer server.Close()

	var out struct {
		Hits int `json:"hits"`
	}
	err := New(fastConfig(), nil).PostJSON(context.Background(), server.URL, map[string]int{"size": 1}, &out)

	require.NoError(t, err)
	assert.Equal(t, 3, out.Hits)
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.RPS = 20
	cfg.Burst = 1
	client := New(cfg, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
	}

	// Two waits of 50ms after the initial token.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "court", snippet([]byte("  court \n")))

	long := strings.Repeat("é", 250)
	got := snippet([]byte(long))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 200)+"...", got)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))
}
