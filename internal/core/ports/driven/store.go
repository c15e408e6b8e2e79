package driven

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// DocumentStore persists documents and their chunk sets.
type DocumentStore interface {
	// UpsertDocument stores a document keyed by (Origin, ExternalID).
	UpsertDocument(ctx context.Context, doc *domain.LegalDocument) error

	// ReplaceChunks deletes the document's chunks and inserts chunks in a
	// single transaction. Readers never observe a mixed or empty set.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// ReplaceDocument upserts doc and replaces its chunk set atomically. A
	// failed call leaves both the previous document row and chunks intact.
	ReplaceDocument(ctx context.Context, doc *domain.LegalDocument, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.LegalDocument, error)

	// FindDocument retrieves a document by its natural key.
	FindDocument(ctx context.Context, origin, externalID string) (*domain.LegalDocument, error)

	// GetChunks retrieves the chunks of a document ordered by ordinal.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all documents of an origin.
	ListDocuments(ctx context.Context, origin string) ([]domain.LegalDocument, error)

	// CountChunks returns the total number of chunks and how many are embedded.
	CountChunks(ctx context.Context) (total int, embedded int, err error)
}

// VectorStore stores chunk embeddings and answers nearest-neighbour queries.
type VectorStore interface {
	// PendingChunks returns up to limit un-embedded chunks with ID greater
	// than afterID, ordered by ID.
	PendingChunks(ctx context.Context, afterID string, limit int) ([]domain.Chunk, error)

	// UpsertEmbeddings writes the Embedding of each chunk, keyed by chunk ID.
	UpsertEmbeddings(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the k chunks most similar to vector that match filter,
	// ordered by descending cosine similarity.
	Search(ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error)

	// RebuildIndex (re)builds the approximate nearest-neighbour index.
	RebuildIndex(ctx context.Context) error
}

// CursorStore persists per-source pagination state.
type CursorStore interface {
	// Save stores or updates a cursor.
	Save(ctx context.Context, cursor domain.IngestionCursor) error

	// Get retrieves the cursor for a source, domain.ErrNotFound when absent.
	Get(ctx context.Context, sourceID string) (*domain.IngestionCursor, error)

	// Delete removes the cursor for a source.
	Delete(ctx context.Context, sourceID string) error
}

// FailureStore persists skipped items for manual review.
type FailureStore interface {
	// Record appends a failure.
	Record(ctx context.Context, failure domain.ItemFailure) error

	// List returns the failures of a source, oldest first.
	List(ctx context.Context, sourceID string) ([]domain.ItemFailure, error)

	// Clear removes the failures of a source.
	Clear(ctx context.Context, sourceID string) error
}

// RunStore keeps a bounded history of ingestion runs.
type RunStore interface {
	// RecordRun appends a run outcome.
	RecordRun(ctx context.Context, run domain.RunRecord) error

	// LastRun returns the most recent run of a source, domain.ErrNotFound when none.
	LastRun(ctx context.Context, sourceID string) (*domain.RunRecord, error)

	// History returns recent runs of a source, most recent first.
	History(ctx context.Context, sourceID string, limit int) ([]domain.RunRecord, error)

	// PruneHistory keeps only the most recent keep runs per source.
	PruneHistory(ctx context.Context, keep int) error
}
