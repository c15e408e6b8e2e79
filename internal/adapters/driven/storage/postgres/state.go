package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

type cursorStore struct {
	store *Store
}

var _ driven.CursorStore = (*cursorStore)(nil)

func (s *cursorStore) Save(ctx context.Context, cursor domain.IngestionCursor) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_cursors (source_id, token, fetched, pages, done, last_success)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_id) DO UPDATE SET
			token = EXCLUDED.token,
			fetched = EXCLUDED.fetched,
			pages = EXCLUDED.pages,
			done = EXCLUDED.done,
			last_success = EXCLUDED.last_success
	`, cursor.SourceID, cursor.Token, cursor.Fetched, cursor.Pages, cursor.Done,
		sql.NullTime{Time: cursor.LastSuccess, Valid: !cursor.LastSuccess.IsZero()})
	if err != nil {
		return writeError("save cursor", err)
	}
	return nil
}

func (s *cursorStore) Get(ctx context.Context, sourceID string) (*domain.IngestionCursor, error) {
	var cursor domain.IngestionCursor
	var lastSuccess sql.NullTime
	err := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, token, fetched, pages, done, last_success
		FROM ingestion_cursors WHERE source_id = $1
	`, sourceID).Scan(&cursor.SourceID, &cursor.Token, &cursor.Fetched, &cursor.Pages,
		&cursor.Done, &lastSuccess)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cursor: %w", err)
	}
	if lastSuccess.Valid {
		cursor.LastSuccess = lastSuccess.Time
	}
	return &cursor, nil
}

func (s *cursorStore) Delete(ctx context.Context, sourceID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM ingestion_cursors WHERE source_id = $1", sourceID); err != nil {
		return writeError("delete cursor", err)
	}
	return nil
}

type failureStore struct {
	store *Store
}

var _ driven.FailureStore = (*failureStore)(nil)

func (s *failureStore) Record(ctx context.Context, failure domain.ItemFailure) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO item_failures (source_id, catalog_id, stage, reason, failed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, failure.SourceID, failure.CatalogID, string(failure.Stage), failure.Reason, failure.At.UTC())
	if err != nil {
		return writeError("record failure", err)
	}
	return nil
}

func (s *failureStore) List(ctx context.Context, sourceID string) ([]domain.ItemFailure, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_id, catalog_id, stage, reason, failed_at
		FROM item_failures WHERE source_id = $1 ORDER BY id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var failures []domain.ItemFailure
	for rows.Next() {
		var f domain.ItemFailure
		var stage string
		if err := rows.Scan(&f.SourceID, &f.CatalogID, &stage, &f.Reason, &f.At); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		f.Stage = domain.FailureStage(stage)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failures: %w", err)
	}
	return failures, nil
}

func (s *failureStore) Clear(ctx context.Context, sourceID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM item_failures WHERE source_id = $1", sourceID); err != nil {
		return writeError("clear failures", err)
	}
	return nil
}

type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `source_id, trigger_kind, started_at, ended_at, success, error, documents, chunks, failures`

func (s *runStore) RecordRun(ctx context.Context, run domain.RunRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.SourceID, string(run.Trigger), run.StartedAt.UTC(), run.EndedAt.UTC(), run.Success,
		sql.NullString{String: run.Error, Valid: run.Error != ""}, run.Documents, run.Chunks, run.Failures)
	if err != nil {
		return writeError("record run", err)
	}
	return nil
}

func (s *runStore) LastRun(ctx context.Context, sourceID string) (*domain.RunRecord, error) {
	runs, err := s.History(ctx, sourceID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &runs[0], nil
}

func (s *runStore) History(ctx context.Context, sourceID string, limit int) ([]domain.RunRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM ingest_runs WHERE source_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var run domain.RunRecord
		var trigger string
		var errMsg sql.NullString
		if err := rows.Scan(&run.SourceID, &trigger, &run.StartedAt, &run.EndedAt, &run.Success,
			&errMsg, &run.Documents, &run.Chunks, &run.Failures); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Trigger = domain.RunTrigger(trigger)
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run history: %w", err)
	}
	return runs, nil
}

func (s *runStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM ingest_runs
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY source_id ORDER BY started_at DESC, id DESC
				) AS rn
				FROM ingest_runs
			) ranked WHERE rn > $1
		)
	`, keep)
	if err != nil {
		return writeError("prune runs", err)
	}
	return nil
}
