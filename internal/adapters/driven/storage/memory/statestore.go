package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure the state stores implement their interfaces.
var (
	_ driven.CursorStore  = (*CursorStore)(nil)
	_ driven.FailureStore = (*FailureStore)(nil)
	_ driven.RunStore     = (*RunStore)(nil)
)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.IngestionCursor
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]domain.IngestionCursor),
	}
}

// Save stores or updates a cursor.
func (s *CursorStore) Save(_ context.Context, cursor domain.IngestionCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursor.SourceID] = cursor
	return nil
}

// Get retrieves the cursor of a source.
func (s *CursorStore) Get(_ context.Context, sourceID string) (*domain.IngestionCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor, ok := s.cursors[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cursor, nil
}

// Delete removes the cursor of a source.
func (s *CursorStore) Delete(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, sourceID)
	return nil
}

// FailureStore is an in-memory implementation of driven.FailureStore.
type FailureStore struct {
	mu       sync.RWMutex
	failures map[string][]domain.ItemFailure
}

// NewFailureStore creates a new in-memory failure store.
func NewFailureStore() *FailureStore {
	return &FailureStore{
		failures: make(map[string][]domain.ItemFailure),
	}
}

// Record appends a failure.
func (s *FailureStore) Record(_ context.Context, failure domain.ItemFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failure.SourceID] = append(s.failures[failure.SourceID], failure)
	return nil
}

// List returns the failures of a source, oldest first.
func (s *FailureStore) List(_ context.Context, sourceID string) ([]domain.ItemFailure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ItemFailure(nil), s.failures[sourceID]...), nil
}

// Clear removes the failures of a source.
func (s *FailureStore) Clear(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, sourceID)
	return nil
}

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string][]domain.RunRecord // most recent first
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string][]domain.RunRecord),
	}
}

// RecordRun appends a run outcome.
func (s *RunStore) RecordRun(_ context.Context, run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := append(s.runs[run.SourceID], run)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	s.runs[run.SourceID] = runs
	return nil
}

// LastRun returns the most recent run of a source.
func (s *RunStore) LastRun(_ context.Context, sourceID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runs[sourceID]
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	last := runs[0]
	return &last, nil
}

// History returns recent runs of a source, most recent first.
func (s *RunStore) History(_ context.Context, sourceID string, limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runs[sourceID]
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return append([]domain.RunRecord(nil), runs...), nil
}

// PruneHistory keeps the most recent keep runs per source.
func (s *RunStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, runs := range s.runs {
		if len(runs) > keep {
			s.runs[id] = runs[:keep]
		}
	}
	return nil
}
