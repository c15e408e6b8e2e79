package driven

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// ChunkStrategy splits one kind of document into natural legal units.
type ChunkStrategy interface {
	// Name returns the strategy name for logging.
	Name() string

	// Kind returns the document kind the strategy handles.
	Kind() domain.DocumentKind

	// Chunk returns the chunks of doc in order. Ordinals, IDs and
	// classification are assigned by the pipeline.
	Chunk(ctx context.Context, doc *domain.LegalDocument) ([]domain.Chunk, error)
}

// Classifier assigns jurisdiction and legal domain to a document.
type Classifier interface {
	Classify(doc *domain.LegalDocument) domain.Classification
}

// ChunkPipeline classifies a document and splits it with the strategy
// registered for its kind.
type ChunkPipeline interface {
	Chunk(ctx context.Context, doc *domain.LegalDocument) ([]domain.Chunk, error)
}
