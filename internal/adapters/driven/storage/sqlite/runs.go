package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `source_id, trigger_kind, started_at, ended_at, success, error, documents, chunks, failures`

// RecordRun appends a run outcome.
func (s *runStore) RecordRun(ctx context.Context, run domain.RunRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.SourceID, string(run.Trigger), formatTime(run.StartedAt), formatTime(run.EndedAt),
		boolToInt(run.Success), nullString(run.Error), run.Documents, run.Chunks, run.Failures)
	if err != nil {
		return writeError("record run", err)
	}
	return nil
}

// LastRun returns the most recent run of a source.
func (s *runStore) LastRun(ctx context.Context, sourceID string) (*domain.RunRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM ingest_runs
		WHERE source_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, sourceID)
	return scanRun(row)
}

// History returns recent runs of a source, most recent first.
func (s *runStore) History(ctx context.Context, sourceID string, limit int) ([]domain.RunRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM ingest_runs
		WHERE source_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run history: %w", err)
	}
	return runs, nil
}

// PruneHistory keeps the most recent keep runs per source.
func (s *runStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM ingest_runs
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY source_id ORDER BY started_at DESC, id DESC
				) AS rn
				FROM ingest_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return writeError("prune runs", err)
	}
	return nil
}

func scanRun(row scanner) (*domain.RunRecord, error) {
	var run domain.RunRecord
	var trigger string
	var startedAt, endedAt, errMsg sql.NullString
	var success int

	if err := row.Scan(&run.SourceID, &trigger, &startedAt, &endedAt, &success, &errMsg,
		&run.Documents, &run.Chunks, &run.Failures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Trigger = domain.RunTrigger(trigger)
	run.StartedAt = parseNullableTime(startedAt)
	run.EndedAt = parseNullableTime(endedAt)
	run.Success = success == 1
	run.Error = errMsg.String
	return &run, nil
}
