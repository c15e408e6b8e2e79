package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a provider for embeddings or answer generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderCohere is the Cohere cloud API.
	AIProviderCohere AIProvider = "cohere"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is the Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderCohere, AIProviderOpenAI, AIProviderOllama, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderCohere || p == AIProviderOpenAI || p == AIProviderOllama
}

// SupportsGeneration returns true if the provider offers a chat API.
func (p AIProvider) SupportsGeneration() bool {
	return p == AIProviderOpenAI || p == AIProviderOllama || p == AIProviderAnthropic
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderCohere:
		return "Cohere (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	APIKey string

	// Dimensions overrides the size known for the model.
	Dimensions int

	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbedding() {
		return false
	}
	return !e.Provider.RequiresAPIKey() || e.APIKey != ""
}

// GeneratorSettings holds answer generator configuration.
type GeneratorSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// MaxTokens bounds the answer length. Zero uses the provider default.
	MaxTokens int

	Timeout time.Duration
}

// IsConfigured returns true if the answer generator is set up.
func (g GeneratorSettings) IsConfigured() bool {
	if !g.Provider.SupportsGeneration() {
		return false
	}
	return !g.Provider.RequiresAPIKey() || g.APIKey != ""
}
