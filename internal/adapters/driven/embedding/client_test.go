package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["text"]})
	}))
	defer server.Close()

	c := NewClient("test", server.URL, time.Second)
	c.Header.Set("Authorization", "Bearer k")

	var out struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, c.PostJSON(context.Background(), "/embed", map[string]string{"text": "Art. 1"}, &out))
	assert.Equal(t, "Art. 1", out.Echo)
}

func TestClient_PostJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := NewClient("test", server.URL, time.Second).PostJSON(context.Background(), "/", struct{}{}, &struct{}{})

	var pe *domain.EmbeddingProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.True(t, domain.IsRetryable(err))
	assert.Contains(t, err.Error(), "slow down")
}

func TestClient_PostJSON_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	err := NewClient("test", server.URL, time.Second).PostJSON(context.Background(), "/", struct{}{}, &struct{}{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
	assert.False(t, domain.IsRetryable(err))
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewClient("test", server.URL, time.Second)
	assert.NoError(t, c.Ping(context.Background(), "/models"))
	assert.Error(t, c.Ping(context.Background(), "/missing"))
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("test", "http://127.0.0.1:1", time.Second)

	err := c.Ping(context.Background(), "/")

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}
