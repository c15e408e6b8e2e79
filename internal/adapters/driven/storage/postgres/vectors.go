package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

func (s *vectorStore) PendingChunks(ctx context.Context, afterID string, limit int) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM legal_chunks c
		WHERE c.embedding IS NULL AND c.id > $1
		ORDER BY c.id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending chunks: %w", err)
	}
	return chunks, nil
}

// UpsertEmbeddings skips rows whose content no longer matches the chunk
// text, which happens when a re-ingest replaced them mid-pass.
func (s *vectorStore) UpsertEmbeddings(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := s.checkVector(chunks[i].Embedding); err != nil {
			return fmt.Errorf("chunk %s: %w", chunks[i].ID, err)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("upsert embeddings", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, "UPDATE legal_chunks SET embedding = $1 WHERE id = $2 AND content = $3")
	if err != nil {
		return writeError("upsert embeddings", fmt.Errorf("preparing statement: %w", err))
	}
	defer stmt.Close()

	for i := range chunks {
		if _, err := stmt.ExecContext(ctx, pgvector.NewVector(chunks[i].Embedding), chunks[i].ID, chunks[i].Text); err != nil {
			return writeError("upsert embeddings", fmt.Errorf("updating chunk %s: %w", chunks[i].ID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return writeError("upsert embeddings", fmt.Errorf("committing: %w", err))
	}
	return nil
}

// Search orders by cosine distance through the HNSW index and reports
// similarity as 1 - distance.
func (s *vectorStore) Search(
	ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	if err := s.checkVector(vector); err != nil {
		return nil, err
	}

	tx, err := s.store.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning search: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	efSearch := s.store.cfg.HNSWEfSearch
	if k > efSearch {
		efSearch = k
	}
	// SET does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch)); err != nil {
		return nil, fmt.Errorf("setting ef_search: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+chunkColumns+`, d.title, 1 - (c.embedding <=> $1) AS score
		FROM legal_chunks c
		JOIN legal_documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
			AND ($2::text = '' OR c.jurisdiction = $2)
			AND ($3::text = '' OR c.legal_domain = $3)
			AND ($4::text = '' OR c.kind = $4)
		ORDER BY c.embedding <=> $1, c.id
		LIMIT $5
	`, pgvector.NewVector(vector), filter.Jurisdiction, string(filter.LegalDomain), string(filter.Kind), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var title string
		var score float64
		chunk, err := scanChunk(rows, &title, &score)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.ScoredChunk{Chunk: *chunk, DocumentTitle: title, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return results, nil
}

// RebuildIndex drops and recreates the HNSW index.
func (s *vectorStore) RebuildIndex(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DROP INDEX IF EXISTS "+embeddingIndex); err != nil {
		return writeError("rebuild index", fmt.Errorf("dropping index: %w", err))
	}
	if _, err := s.store.db.ExecContext(ctx, indexDDL(s.store.cfg, false)); err != nil {
		return writeError("rebuild index", fmt.Errorf("creating index: %w", err))
	}
	if _, err := s.store.db.ExecContext(ctx, "ANALYZE legal_chunks"); err != nil {
		return writeError("rebuild index", fmt.Errorf("analyzing: %w", err))
	}
	return nil
}

func (s *vectorStore) checkVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	if len(v) != s.store.cfg.Dimensions {
		return fmt.Errorf("%w: got %d, store expects %d",
			domain.ErrDimensionMismatch, len(v), s.store.cfg.Dimensions)
	}
	return nil
}
