// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	cohereembed "github.com/custodia-labs/lexgate/internal/adapters/driven/embedding/cohere"
	ollamaembed "github.com/custodia-labs/lexgate/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lexgate/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/lexgate/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/lexgate/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lexgate/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Generator is an answer generator client with connectivity checks.
type Generator interface {
	driven.AnswerGenerator
	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Generator        Generator
	Warnings         []string // Non-fatal issues, e.g. an unreachable generator.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.Generator != nil {
		r.Generator.Close()
	}
}

// Init creates both services. Failures become warnings: ingestion runs
// without an embedder and chunks stay pending until one is reachable.
func Init(embedding *domain.EmbeddingSettings, generator *domain.GeneratorSettings) *InitResult {
	result := &InitResult{}

	svc, err := CreateAndValidateEmbeddingService(embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else {
		result.EmbeddingService = svc
	}

	gen, err := CreateAndValidateGenerator(generator)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	} else {
		result.Generator = gen
	}
	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil if no provider is configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [embedding] section of the config",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateGenerator creates an answer generator and validates connectivity.
// Returns nil if no provider is configured.
func CreateAndValidateGenerator(settings *domain.GeneratorSettings) (Generator, error) {
	gen, err := CreateGenerator(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [generator] section of the config",
			domain.ErrGeneratorUnavailable, err)
	}
	if gen == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := gen.Ping(ctx); err != nil {
		gen.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrGeneratorUnavailable, err)
	}
	return gen, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if no provider is set.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.Provider.SupportsEmbedding() {
		return nil, fmt.Errorf("%s does not support embeddings, use cohere, openai or ollama", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%s requires an API key", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderCohere:
		svc, err := cohereembed.NewEmbeddingService(cohereembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.Dimensions,
		}), nil
	}
}

// CreateGenerator creates the appropriate answer generator based on settings.
// Returns nil if no provider is set.
func CreateGenerator(settings *domain.GeneratorSettings) (Generator, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.Provider.SupportsGeneration() {
		return nil, fmt.Errorf("%s does not support answer generation, use openai, anthropic or ollama", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%s requires an API key", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		gen, err := openaillm.NewGenerator(openaillm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
			Timeout:   settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil

	case domain.AIProviderAnthropic:
		gen, err := anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
			Timeout:   settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil

	default:
		return ollamallm.NewGenerator(ollamallm.Config{
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
			Timeout:   settings.Timeout,
		}), nil
	}
}
