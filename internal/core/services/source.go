package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService exposes configured sources, their catalogs and their
// ingestion history.
type SourceService struct {
	sources      []IngestSource
	failureStore driven.FailureStore
	runStore     driven.RunStore
}

// NewSourceService creates a new source service. runStore may be nil.
func NewSourceService(sources []IngestSource, failureStore driven.FailureStore, runStore driven.RunStore) *SourceService {
	return &SourceService{
		sources:      sources,
		failureStore: failureStore,
		runStore:     runStore,
	}
}

// List returns the configured sources ordered by ID.
func (s *SourceService) List() []driving.SourceInfo {
	out := make([]driving.SourceInfo, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, sourceInfo(src))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns one configured source.
func (s *SourceService) Get(sourceID string) (*driving.SourceInfo, error) {
	src, err := s.find(sourceID)
	if err != nil {
		return nil, err
	}
	info := sourceInfo(*src)
	return &info, nil
}

// Browse lists one catalog page starting at cursor without storing anything.
func (s *SourceService) Browse(ctx context.Context, sourceID, cursor string) (*domain.CatalogPage, error) {
	src, err := s.find(sourceID)
	if err != nil {
		return nil, err
	}
	page, err := src.Fetcher.ListCatalog(ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("list catalog of %s: %w", sourceID, err)
	}
	return page, nil
}

// Failures returns the recorded item failures of a source, oldest first.
func (s *SourceService) Failures(ctx context.Context, sourceID string) ([]domain.ItemFailure, error) {
	if _, err := s.find(sourceID); err != nil {
		return nil, err
	}
	return s.failureStore.List(ctx, sourceID)
}

// ClearFailures discards the recorded item failures of a source.
func (s *SourceService) ClearFailures(ctx context.Context, sourceID string) error {
	if _, err := s.find(sourceID); err != nil {
		return err
	}
	return s.failureStore.Clear(ctx, sourceID)
}

// History returns recent runs of a source, most recent first.
func (s *SourceService) History(ctx context.Context, sourceID string, limit int) ([]domain.RunRecord, error) {
	if _, err := s.find(sourceID); err != nil {
		return nil, err
	}
	if s.runStore == nil {
		return nil, nil
	}
	return s.runStore.History(ctx, sourceID, limit)
}

func (s *SourceService) find(sourceID string) (*IngestSource, error) {
	for i := range s.sources {
		if s.sources[i].Config.ID == sourceID {
			return &s.sources[i], nil
		}
	}
	return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
}

func sourceInfo(src IngestSource) driving.SourceInfo {
	info := driving.SourceInfo{
		ID:       src.Config.ID,
		Type:     src.Config.Type,
		Workers:  src.Config.Workers,
		Schedule: src.Config.Schedule,
		Filters:  src.Config.Filters,
	}
	if src.Fetcher != nil {
		info.Kind = src.Fetcher.Kind()
	}
	return info
}
