// Package ollama provides an answer generator adapter using a local Ollama.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/llm"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

var _ driven.AnswerGenerator = (*Generator)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 300 * time.Second

	answerTemperature = 0.1
)

// Config holds configuration for the Ollama answer generator. Zero
// MaxTokens leaves the length to the model.
type Config struct {
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Generator produces grounded answers with a local Ollama model.
type Generator struct {
	api       *llm.Client
	model     string
	maxTokens int
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func (r *chatResponse) ErrorMessage() string { return r.Error }

// NewGenerator creates a new Ollama answer generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Generator{
		api:       llm.NewClient("ollama", cfg.BaseURL, cfg.Timeout),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Generate runs a non-streaming chat with the prompt as system message.
func (g *Generator) Generate(ctx context.Context, query string, _ *domain.EvidenceBundle, prompt string) (string, error) {
	var resp chatResponse
	err := g.api.PostJSON(ctx, "/api/chat", chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: query},
		},
		Options: options{NumPredict: g.maxTokens, Temperature: answerTemperature},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// ModelName returns the chat model in use.
func (g *Generator) ModelName() string { return g.model }

// Ping lists local models, which runs no inference.
func (g *Generator) Ping(ctx context.Context) error { return g.api.Ping(ctx, "/api/tags") }

// Close releases resources.
func (g *Generator) Close() error { return nil }
