// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// maxBodyInError bounds how much of a provider response is quoted in errors.
const maxBodyInError = 512

// StatusError converts a non-2xx provider response into a
// *domain.EmbeddingProviderError. Rate limits and server errors are retryable.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBodyInError {
		msg = msg[:maxBodyInError] + "..."
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.EmbeddingProviderError{
		Provider:   provider,
		StatusCode: status,
		Retryable:  status == http.StatusTooManyRequests || status >= 500,
		Err:        errors.New(msg),
	}
}

// TransportError wraps a failed request. Network failures are retryable
// unless the caller's context ended.
func TransportError(provider string, err error) error {
	return &domain.EmbeddingProviderError{
		Provider:  provider,
		Retryable: !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded),
		Err:       err,
	}
}

// CheckVectors verifies a provider returned one vector of the expected size
// per input. Mismatched sizes are never truncated or padded.
func CheckVectors(provider string, vectors [][]float32, inputs, dimensions int) error {
	if len(vectors) != inputs {
		return &domain.EmbeddingProviderError{
			Provider: provider,
			Err:      fmt.Errorf("expected %d embeddings, got %d", inputs, len(vectors)),
		}
	}
	for i, v := range vectors {
		if len(v) != dimensions {
			return fmt.Errorf("%s embedding %d: %w: got %d, want %d",
				provider, i, domain.ErrDimensionMismatch, len(v), dimensions)
		}
	}
	return nil
}

// ToFloat32 converts a decoded JSON vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
