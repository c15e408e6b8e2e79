package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL, Dimensions: 3})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)

	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1024, svc.Dimensions())

	_, err = NewEmbeddingService(Config{APIKey: "k", Model: "custom-model"})
	assert.Error(t, err)

	svc, err = NewEmbeddingService(Config{APIKey: "k", Model: "custom-model", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
}

func TestEmbedBatch_SendsInputType(t *testing.T) {
	var got embedRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/embed", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"1","embeddings":{"float":[[0.1,0.2,0.3],[0.4,0.5,0.6]]}}`))
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"}, driven.InputQuery)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 0.4, vectors[1][0], 1e-6)

	assert.Equal(t, "search_query", got.InputType)
	assert.Equal(t, []string{"float"}, got.EmbeddingTypes)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, []string{"a", "b"}, got.Texts)
}

func TestEmbedBatch_DefaultsToDocumentInput(t *testing.T) {
	var got embedRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"embeddings":{"float":[[1,0,0]]}}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, "")
	require.NoError(t, err)
	assert.Equal(t, "search_document", got.InputType)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	vectors, err := svc.EmbedBatch(context.Background(), nil, driven.InputDocument)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatch_TooLarge(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := svc.EmbedBatch(context.Background(), make([]string, MaxBatchSize+1), driven.InputDocument)
	assert.Error(t, err)
}

func TestEmbedBatch_RateLimitIsRetryable(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"too many requests"}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, driven.InputDocument)
	var pe *domain.EmbeddingProviderError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Retryable)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
}

func TestEmbedBatch_BadRequestIsPermanent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, driven.InputDocument)
	assert.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestEmbedBatch_DimensionMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":{"float":[[1,0]]}}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"}, driven.InputDocument)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))

	svc.api.Header.Set("Authorization", "Bearer wrong")
	assert.Error(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
