// Package ollama provides an embedding service adapter using a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/embedding"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "bge-m3"
	DefaultTimeout    = 120 * time.Second
	DefaultDimensions = 1024 // bge-m3

	// MaxBatchSize keeps a single /api/embed call within local memory.
	MaxBatchSize = 64
)

const providerName = "ollama"

// Config holds configuration for the Ollama embedding service.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService generates embeddings with a model served by Ollama.
// Nothing leaves the machine, which makes it the default for offline use.
type EmbeddingService struct {
	api        *embedding.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		api:        embedding.NewClient(providerName, cfg.BaseURL, cfg.Timeout),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// EmbedBatch embeds texts with one /api/embed call. The input type is
// ignored.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, _ driven.InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("ollama: batch of %d exceeds limit of %d", len(texts), MaxBatchSize)
	}

	var resp embedResponse
	if err := s.api.PostJSON(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, v := range resp.Embeddings {
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

// Ping lists local models, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

// Close releases resources.
func (s *EmbeddingService) Close() error { return nil }
