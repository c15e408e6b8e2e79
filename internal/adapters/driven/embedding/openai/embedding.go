// Package openai provides an embedding service adapter using the OpenAI API
// or any server speaking its /embeddings protocol.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/embedding"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the largest number of inputs accepted per request.
	MaxBatchSize = 2048

	fallbackDimensions = 1536
)

const providerName = "openai"

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	APIKey string

	// BaseURL defaults to https://api.openai.com/v1. Azure OpenAI and
	// compatible gateways work by changing it.
	BaseURL string

	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* vectors. For other models it
	// must match what the model returns.
	Dimensions int
}

// EmbeddingService generates embeddings using the OpenAI API. The models
// are symmetric, so queries and passages share one space.
type EmbeddingService struct {
	api        *embedding.Client
	model      string
	dimensions int

	// shortenable models accept a dimensions parameter.
	shortenable bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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
		if d, ok := modelDimensions[cfg.Model]; ok {
			dimensions = d
		} else {
			dimensions = fallbackDimensions
		}
	}

	api := embedding.NewClient(providerName, strings.TrimSuffix(cfg.BaseURL, "/"), cfg.Timeout)
	api.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &EmbeddingService{
		api:         api,
		model:       cfg.Model,
		dimensions:  dimensions,
		shortenable: strings.HasPrefix(cfg.Model, "text-embedding-3-"),
	}, nil
}

// EmbedBatch embeds texts in one request and returns them in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, _ driven.InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("openai: batch of %d exceeds limit of %d", len(texts), MaxBatchSize)
	}

	req := embeddingRequest{Model: s.model, Input: texts}
	if s.shortenable {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.PostJSON(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	// Entries the API skipped stay nil and fail CheckVectors.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = embedding.ToFloat32(d.Embedding)
	}
	if err := embedding.CheckVectors(providerName, vectors, len(texts), s.dimensions); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (s *EmbeddingService) BatchLimit() int   { return MaxBatchSize }
func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks the API key against the model listing.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

func (s *EmbeddingService) Close() error { return nil }
