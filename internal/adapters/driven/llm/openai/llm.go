// Package openai provides an answer generator adapter using the OpenAI chat API.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/llm"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

var _ driven.AnswerGenerator = (*Generator)(nil)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1500

	// answerTemperature keeps answers close to the evidence.
	answerTemperature = 0.1
)

// Config holds configuration for the OpenAI answer generator.
type Config struct {
	APIKey string

	// BaseURL can point at Azure OpenAI or a compatible gateway.
	BaseURL string

	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Generator produces grounded answers with the OpenAI chat API.
type Generator struct {
	api       *llm.Client
	model     string
	maxTokens int
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *chatResponse) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// NewGenerator creates a new OpenAI answer generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	api := llm.NewClient("openai", cfg.BaseURL, cfg.Timeout)
	api.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &Generator{api: api, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

// Generate sends prompt as the system message and query as the user
// message. The evidence is already rendered into prompt.
func (g *Generator) Generate(ctx context.Context, query string, _ *domain.EvidenceBundle, prompt string) (string, error) {
	var resp chatResponse
	err := g.api.PostJSON(ctx, "/chat/completions", chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: query},
		},
		MaxTokens:   g.maxTokens,
		Temperature: answerTemperature,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the chat model in use.
func (g *Generator) ModelName() string { return g.model }

// Ping checks the API key against the model listing.
func (g *Generator) Ping(ctx context.Context) error { return g.api.Ping(ctx, "/models") }

// Close releases resources.
func (g *Generator) Close() error { return nil }
