package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrIngestInProgress", ErrIngestInProgress},
		{"ErrCursorStalled", ErrCursorStalled},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrRetrievalUnavailable", ErrRetrievalUnavailable},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrManualSource", ErrManualSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestTransientFetchError(t *testing.T) {
	inner := errors.New("connection reset")

	t.Run("with status", func(t *testing.T) {
		err := &TransientFetchError{URL: "https://example.ch/a", StatusCode: 503, Err: inner}
		assert.Equal(t, "transient fetch error for https://example.ch/a (status 503): connection reset", err.Error())
		assert.ErrorIs(t, err, inner)
	})

	t.Run("without status", func(t *testing.T) {
		err := &TransientFetchError{URL: "https://example.ch/a", Err: inner}
		assert.Equal(t, "transient fetch error for https://example.ch/a: connection reset", err.Error())
	})

	t.Run("detected through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("fetching item: %w", &TransientFetchError{URL: "u", Err: inner})
		assert.True(t, IsTransient(wrapped))
		assert.True(t, IsRetryable(wrapped))
		assert.False(t, IsExtraction(wrapped))
	})
}

func TestExtractionError(t *testing.T) {
	err := fmt.Errorf("item: %w", &ExtractionError{ItemID: "CH_BGer_001", Err: errors.New("empty body")})

	assert.True(t, IsExtraction(err))
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "extraction failed for CH_BGer_001: empty body")
}

func TestEmbeddingProviderError(t *testing.T) {
	tests := []struct {
		name      string
		err       *EmbeddingProviderError
		retryable bool
		message   string
	}{
		{
			name:      "rate limited",
			err:       &EmbeddingProviderError{Provider: "cohere", StatusCode: 429, Retryable: true, Err: ErrRateLimited},
			retryable: true,
			message:   "cohere embedding error (status 429): rate limited",
		},
		{
			name:      "bad request",
			err:       &EmbeddingProviderError{Provider: "openai", StatusCode: 400, Err: errors.New("bad input")},
			retryable: false,
			message:   "openai embedding error (status 400): bad input",
		},
		{
			name:      "no status",
			err:       &EmbeddingProviderError{Provider: "ollama", Retryable: true, Err: errors.New("dial tcp")},
			retryable: true,
			message:   "ollama embedding error: dial tcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestRetrievalError_IsUnavailable(t *testing.T) {
	err := fmt.Errorf("retrieve: %w", &RetrievalError{Stage: "search", Err: errors.New("connection refused")})

	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "retrieval search failed")
}

func TestStoreWriteError(t *testing.T) {
	err := &StoreWriteError{Op: "replace chunks", Err: errors.New("disk full")}

	assert.True(t, IsStoreWrite(fmt.Errorf("wrap: %w", err)))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, "store write replace chunks: disk full", err.Error())
}

func TestIsRetryable_Nil(t *testing.T) {
	assert.False(t, IsRetryable(nil))
}
