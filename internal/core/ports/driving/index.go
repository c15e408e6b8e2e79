package driving

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// Indexer embeds chunks and maintains the vector index.
type Indexer interface {
	// EmbedAndStore embeds chunks in provider-sized batches and persists
	// their vectors. Batches that exhaust retries are reported and stay pending.
	EmbedAndStore(ctx context.Context, chunks []domain.Chunk) (*domain.IndexReport, error)

	// EmbedPending embeds every chunk without a vector.
	EmbedPending(ctx context.Context) (*domain.IndexReport, error)

	// RebuildIndex rebuilds the approximate nearest-neighbour index.
	RebuildIndex(ctx context.Context) error
}
