package extractors

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects an extractor by MIME type. Extractors bound to the
// payload's source type win over generic ones; ties break on Priority.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
}

// NewRegistry creates a registry with the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, e)
}

// Select returns the best extractor for a payload, or nil.
func (r *Registry) Select(mimeType, sourceType string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Extractor
	bestSpecific := false
	for _, e := range r.extractors {
		if !slices.Contains(e.SupportedMIMETypes(), mimeType) {
			continue
		}
		sources := e.SupportedSources()
		specific := len(sources) > 0
		if specific && !slices.Contains(sources, sourceType) {
			continue
		}

		switch {
		case best == nil:
		case specific && !bestSpecific:
		case specific == bestSpecific && e.Priority() > best.Priority():
		default:
			continue
		}
		best, bestSpecific = e, specific
	}
	return best
}

// Extract dispatches the payload to the best matching extractor.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := raw.MIMEType()
	sourceType := raw.Entry.Metadata["source_type"]

	e := r.Select(mimeType, sourceType)
	if e == nil {
		return nil, &domain.ExtractionError{
			ItemID: raw.Entry.CatalogID,
			Err:    fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType),
		}
	}

	logger.Debug("extract %s with %s (%s)", raw.Entry.CatalogID, e.Name(), mimeType)
	return e.Extract(ctx, raw)
}

// Names returns the registered extractor names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}
