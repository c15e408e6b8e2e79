package driving

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// IngestOptions tunes a single ingestion run.
type IngestOptions struct {
	// Reset discards the stored cursor and starts from the first page.
	Reset bool

	// MaxPages stops the run after this many pages. Zero means unlimited.
	MaxPages int

	// SkipEmbedding leaves new chunks pending instead of indexing them.
	SkipEmbedding bool

	// Trigger is recorded in the run history. Empty means manual.
	Trigger domain.RunTrigger
}

// IngestionCoordinator drives catalog sources through fetch, extract,
// chunk, store and index.
type IngestionCoordinator interface {
	// Ingest runs one source to completion or until ctx is cancelled.
	// Item-level failures are recorded and skipped; the report lists them.
	Ingest(ctx context.Context, sourceID string, opts IngestOptions) (*domain.IngestReport, error)

	// IngestAll runs every configured source concurrently.
	IngestAll(ctx context.Context, opts IngestOptions) ([]domain.IngestReport, error)

	// Status returns ingestion state for a source.
	Status(ctx context.Context, sourceID string) (*IngestStatus, error)

	// Sources returns the configured source IDs.
	Sources() []string
}

// IngestStatus represents the current state of a source.
type IngestStatus struct {
	// SourceID identifies the source.
	SourceID string

	// Running indicates if ingestion is currently in progress.
	Running bool

	// Cursor is the last committed pagination state, nil before the first page.
	Cursor *domain.IngestionCursor

	// FailureCount is the number of recorded item failures.
	FailureCount int

	// LastRun is the most recent recorded run, nil when the source never ran.
	LastRun *domain.RunRecord
}
