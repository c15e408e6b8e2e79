// Package cohere provides an embedding service adapter using the Cohere v2 API.
package cohere

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/embedding"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "embed-multilingual-v3.0"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the largest number of texts accepted per request.
	MaxBatchSize = 96
)

const providerName = "cohere"

// Model dimensions for Cohere embedding models.
var modelDimensions = map[string]int{
	"embed-multilingual-v3.0":       1024,
	"embed-english-v3.0":            1024,
	"embed-multilingual-light-v3.0": 384,
	"embed-english-light-v3.0":      384,
}

// Config holds configuration for the Cohere embedding service.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com).
	BaseURL string

	// Model is the embedding model to use (default: embed-multilingual-v3.0).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the size looked up for the model.
	Dimensions int
}

// EmbeddingService generates embeddings using the Cohere API. Cohere
// models are asymmetric, so the input type selects query or document space.
type EmbeddingService struct {
	api        *embedding.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
	Truncate       string   `json:"truncate,omitempty"`
}

type embedResponse struct {
	Embeddings struct {
		Float [][]float64 `json:"float"`
	} `json:"embeddings"`
}

// NewEmbeddingService creates a new Cohere embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		if dimensions, ok = modelDimensions[cfg.Model]; !ok {
			return nil, fmt.Errorf("cohere: unknown dimensions for model %q, set them explicitly", cfg.Model)
		}
	}

	api := embedding.NewClient(providerName, cfg.BaseURL, cfg.Timeout)
	api.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &EmbeddingService{api: api, model: cfg.Model, dimensions: dimensions}, nil
}

// EmbedBatch embeds up to MaxBatchSize texts in one request. Overlong texts
// are truncated by the API rather than rejected.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, input driven.InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("cohere: batch of %d exceeds limit of %d", len(texts), MaxBatchSize)
	}
	if input == "" {
		input = driven.InputDocument
	}

	var resp embedResponse
	err := s.api.PostJSON(ctx, "/v2/embed", embedRequest{
		Model:          s.model,
		Texts:          texts,
		InputType:      string(input),
		EmbeddingTypes: []string{"float"},
		Truncate:       "END",
	}, &resp)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(resp.Embeddings.Float))
	for _, v := range resp.Embeddings.Float {
		vectors = append(vectors, embedding.ToFloat32(v))
	}
	if err := embedding.CheckVectors(providerName, vectors, len(texts), s.dimensions); err != nil {
		return nil, err
	}
	return vectors, nil
}

// BatchLimit returns the largest batch EmbedBatch accepts.
func (s *EmbeddingService) BatchLimit() int { return MaxBatchSize }

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks the API key against the model listing.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/v1/models?page_size=1")
}

// Close releases resources.
func (s *EmbeddingService) Close() error { return nil }
