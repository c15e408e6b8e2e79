package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Save stores or updates a cursor.
func (s *cursorStore) Save(ctx context.Context, cursor domain.IngestionCursor) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_cursors (source_id, token, fetched, pages, done, last_success)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			token = excluded.token,
			fetched = excluded.fetched,
			pages = excluded.pages,
			done = excluded.done,
			last_success = excluded.last_success
	`, cursor.SourceID, cursor.Token, cursor.Fetched, cursor.Pages,
		boolToInt(cursor.Done), formatNullableTime(cursor.LastSuccess))
	if err != nil {
		return writeError("save cursor", err)
	}
	return nil
}

// Get retrieves the cursor of a source.
func (s *cursorStore) Get(ctx context.Context, sourceID string) (*domain.IngestionCursor, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, token, fetched, pages, done, last_success
		FROM ingestion_cursors WHERE source_id = ?
	`, sourceID)

	var cursor domain.IngestionCursor
	var done int
	var lastSuccess sql.NullString
	if err := row.Scan(&cursor.SourceID, &cursor.Token, &cursor.Fetched, &cursor.Pages,
		&done, &lastSuccess); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cursor: %w", err)
	}
	cursor.Done = done == 1
	cursor.LastSuccess = parseNullableTime(lastSuccess)
	return &cursor, nil
}

// Delete removes the cursor of a source.
func (s *cursorStore) Delete(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM ingestion_cursors WHERE source_id = ?", sourceID)
	if err != nil {
		return writeError("delete cursor", err)
	}
	return nil
}

// ==================== Failure Store ====================

// failureStore implements driven.FailureStore.
type failureStore struct {
	store *Store
}

var _ driven.FailureStore = (*failureStore)(nil)

// Record appends a failure.
func (s *failureStore) Record(ctx context.Context, failure domain.ItemFailure) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO item_failures (source_id, catalog_id, stage, reason, failed_at)
		VALUES (?, ?, ?, ?, ?)
	`, failure.SourceID, failure.CatalogID, string(failure.Stage), failure.Reason, formatTime(failure.At))
	if err != nil {
		return writeError("record failure", err)
	}
	return nil
}

// List returns the failures of a source, oldest first.
func (s *failureStore) List(ctx context.Context, sourceID string) ([]domain.ItemFailure, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_id, catalog_id, stage, reason, failed_at
		FROM item_failures
		WHERE source_id = ?
		ORDER BY id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var failures []domain.ItemFailure //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.ItemFailure
		var stage string
		var at sql.NullString
		if err := rows.Scan(&f.SourceID, &f.CatalogID, &stage, &f.Reason, &at); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		f.Stage = domain.FailureStage(stage)
		f.At = parseNullableTime(at)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failures: %w", err)
	}
	return failures, nil
}

// Clear removes the failures of a source.
func (s *failureStore) Clear(ctx context.Context, sourceID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM item_failures WHERE source_id = ?", sourceID)
	if err != nil {
		return writeError("clear failures", err)
	}
	return nil
}
