package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// DocumentService exposes stored documents for inspection.
type DocumentService interface {
	// ListByOrigin returns all documents of a source.
	ListByOrigin(ctx context.Context, origin string) ([]domain.LegalDocument, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.LegalDocument, error)

	// GetChunks returns the chunks of a document in order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetDetails returns a display view of a document.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Stats returns corpus-wide chunk counts.
	Stats(ctx context.Context) (*CorpusStats, error)
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	ID           string
	Origin       string
	ExternalID   string
	Kind         domain.DocumentKind
	Title        string
	Reference    string
	Jurisdiction string
	LegalDomain  domain.LegalDomain
	URL          string

	// ChunkCount is the number of chunks.
	ChunkCount int

	// EmbeddedCount is the number of chunks carrying a vector.
	EmbeddedCount int

	// Citations are the chunk citations in order.
	Citations []string

	PublishedAt time.Time
	UpdatedAt   time.Time

	// Metadata is flattened to strings for display.
	Metadata map[string]string
}

// CorpusStats are chunk counts over the whole store.
type CorpusStats struct {
	Chunks   int
	Embedded int
}

// Pending returns the number of chunks without a vector.
func (s CorpusStats) Pending() int {
	return s.Chunks - s.Embedded
}

// SourceService exposes configured sources and their catalogs.
type SourceService interface {
	// List returns the configured sources.
	List() []SourceInfo

	// Get returns one configured source.
	Get(sourceID string) (*SourceInfo, error)

	// Browse lists one catalog page without ingesting it.
	Browse(ctx context.Context, sourceID, cursor string) (*domain.CatalogPage, error)

	// Failures returns the recorded item failures of a source.
	Failures(ctx context.Context, sourceID string) ([]domain.ItemFailure, error)

	// ClearFailures discards the recorded item failures of a source.
	ClearFailures(ctx context.Context, sourceID string) error

	// History returns recent runs of a source, most recent first.
	History(ctx context.Context, sourceID string, limit int) ([]domain.RunRecord, error)
}

// SourceInfo describes a configured source.
type SourceInfo struct {
	ID       string
	Type     string
	Kind     domain.DocumentKind
	Workers  int
	Schedule string
	Filters  map[string]string
}
