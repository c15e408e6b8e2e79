package driven

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// Extractor converts a raw payload into plain text plus structural hints.
// Each extractor handles specific MIME types (e.g., HTML, PDF).
type Extractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// SupportedSources returns source IDs for specialised handling.
	// Empty slice means all sources.
	SupportedSources() []string

	// Priority returns the selection priority (higher = preferred).
	// Source-specific extractors should return 90-100.
	// Generic MIME extractors should return 50-89.
	Priority() int

	// Extract returns the text of the payload. Malformed or empty payloads
	// yield a *domain.ExtractionError.
	Extract(ctx context.Context, raw *domain.RawItem) (*domain.Extraction, error)
}

// ExtractorRegistry selects the extractor for a payload.
type ExtractorRegistry interface {
	// Register adds an extractor.
	Register(e Extractor)

	// Extract dispatches the payload to the best matching extractor.
	Extract(ctx context.Context, raw *domain.RawItem) (*domain.Extraction, error)
}
