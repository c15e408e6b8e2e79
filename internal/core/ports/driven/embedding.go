// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// InputType tells the provider whether texts are indexed or queried.
// Providers without asymmetric embeddings ignore it.
type InputType string

const (
	// InputDocument is used for chunks at indexing time.
	InputDocument InputType = "search_document"

	// InputQuery is used for queries at retrieval time.
	InputQuery InputType = "search_query"
)

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, indexing and retrieval are disabled.
//
// Implementations may include:
//   - Cohere (embed-multilingual-v3.0)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, bge-m3)
type EmbeddingService interface {
	// EmbedBatch generates one embedding per text, in order.
	// Provider failures are returned as *domain.EmbeddingProviderError.
	EmbedBatch(ctx context.Context, texts []string, input InputType) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1024, 1536).
	// Queries and chunks share it; the vector store column is sized from it.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
