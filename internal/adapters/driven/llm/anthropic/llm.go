// Package anthropic provides an answer generator adapter using the Anthropic
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/llm"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

var _ driven.AnswerGenerator = (*Generator)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1500

	anthropicVersion  = "2023-06-01"
	answerTemperature = 0.1
)

// Config holds configuration for the Anthropic answer generator.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// MaxTokens is mandatory for the messages API; zero means the default.
	MaxTokens int

	Timeout time.Duration
}

// Generator produces grounded answers with the Anthropic messages API.
type Generator struct {
	api       *llm.Client
	model     string
	maxTokens int
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *messagesResponse) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// NewGenerator creates a new Anthropic answer generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
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

	api := llm.NewClient("anthropic", cfg.BaseURL, cfg.Timeout)
	api.Header.Set("x-api-key", cfg.APIKey)
	api.Header.Set("anthropic-version", anthropicVersion)
	return &Generator{api: api, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

// Generate sends the query with prompt as the system parameter and joins
// the text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, query string, _ *domain.EvidenceBundle, prompt string) (string, error) {
	var resp messagesResponse
	err := g.api.PostJSON(ctx, "/v1/messages", messagesRequest{
		Model:       g.model,
		System:      prompt,
		Messages:    []message{{Role: "user", Content: query}},
		MaxTokens:   g.maxTokens,
		Temperature: answerTemperature,
	}, &resp)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic: no response content returned (stop reason %q)", resp.StopReason)
	}
	return b.String(), nil
}

func (g *Generator) ModelName() string { return g.model }

// Ping validates the API key by listing models.
func (g *Generator) Ping(ctx context.Context) error { return g.api.Ping(ctx, "/v1/models") }

func (g *Generator) Close() error { return nil }
