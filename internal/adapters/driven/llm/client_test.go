package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (r *reply) ErrorMessage() string { return r.Error }

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := NewClient("test", server.URL+"/", time.Second)
	c.Header.Set("X-Key", "secret")
	return c
}

func TestClient_PostJSON(t *testing.T) {
	var out reply
	err := serve(t, http.StatusOK, `{"text":"Art. 41 CO"}`).PostJSON(context.Background(), "/chat", map[string]string{}, &out)

	require.NoError(t, err)
	assert.Equal(t, "Art. 41 CO", out.Text)
}

func TestClient_PostJSON_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"envelope on 200", http.StatusOK, `{"error":"out of memory"}`, "test error: out of memory"},
		{"envelope on 400", http.StatusBadRequest, `{"error":"bad model"}`, "status 400): bad model"},
		{"plain status", http.StatusBadGateway, `upstream down`, "status 502): upstream down"},
		{"empty body", http.StatusServiceUnavailable, ``, "empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out reply
			err := serve(t, tt.status, tt.body).PostJSON(context.Background(), "/", struct{}{}, &out)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_PostJSON_DecodeError(t *testing.T) {
	var out reply
	err := serve(t, http.StatusOK, `nope`).PostJSON(context.Background(), "/", struct{}{}, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Ping(t *testing.T) {
	assert.NoError(t, serve(t, http.StatusOK, ``).Ping(context.Background(), "/models"))

	err := serve(t, http.StatusUnauthorized, strings.Repeat("x", 2000)).Ping(context.Background(), "/models")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 600)

	err = NewClient("test", "http://127.0.0.1:1", time.Second).Ping(context.Background(), "/")
	assert.ErrorContains(t, err, "ping failed")
}
