package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/storage/ranking"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore with an exact scan.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// PendingChunks returns up to limit chunks without a vector, ordered by ID.
func (s *vectorStore) PendingChunks(ctx context.Context, afterID string, limit int) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM legal_chunks
		WHERE embedding IS NULL AND id > ?
		ORDER BY id
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
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

// UpsertEmbeddings writes each chunk's vector in one transaction. A row is
// only updated while it still holds the text the vector was computed from,
// so chunks replaced since they were read are skipped and stay pending.
func (s *vectorStore) UpsertEmbeddings(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("upsert embeddings", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, "UPDATE legal_chunks SET embedding = ? WHERE id = ? AND content = ?")
	if err != nil {
		return writeError("upsert embeddings", fmt.Errorf("preparing statement: %w", err))
	}
	defer stmt.Close()

	for i := range chunks {
		if !chunks[i].IsEmbedded() {
			return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunks[i].ID)
		}
		if _, err := stmt.ExecContext(ctx, float32SliceToBytes(chunks[i].Embedding), chunks[i].ID, chunks[i].Text); err != nil {
			return writeError("upsert embeddings", fmt.Errorf("updating chunk %s: %w", chunks[i].ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return writeError("upsert embeddings", fmt.Errorf("committing: %w", err))
	}
	return nil
}

// Search ranks every embedded chunk matching filter by cosine similarity.
func (s *vectorStore) Search(
	ctx context.Context, vector []float32, k int, filter domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.ordinal, c.role, c.content, c.citation, c.url, c.kind,
			c.jurisdiction, c.legal_domain, c.article_refs, c.embedding, c.metadata, d.title
		FROM legal_chunks c
		JOIN legal_documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
			AND (? = '' OR c.jurisdiction = ?)
			AND (? = '' OR c.legal_domain = ?)
			AND (? = '' OR c.kind = ?)
	`, filter.Jurisdiction, filter.Jurisdiction,
		string(filter.LegalDomain), string(filter.LegalDomain),
		string(filter.Kind), string(filter.Kind))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	top := ranking.NewTopK(k)
	for rows.Next() {
		var title string
		chunk, err := scanChunk(withTitle{rows: rows, title: &title})
		if err != nil {
			return nil, err
		}
		if len(chunk.Embedding) != len(vector) {
			return nil, fmt.Errorf("%w: stored %d, query %d",
				domain.ErrDimensionMismatch, len(chunk.Embedding), len(vector))
		}
		top.Add(domain.ScoredChunk{
			Chunk:         *chunk,
			DocumentTitle: title,
			Score:         ranking.Cosine(vector, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return top.Results(), nil
}

// RebuildIndex is a no-op: search is an exact scan.
func (s *vectorStore) RebuildIndex(ctx context.Context) error {
	return ctx.Err()
}

// withTitle appends the joined document title to a chunk scan.
type withTitle struct {
	rows  scanner
	title *string
}

func (w withTitle) Scan(dest ...any) error {
	return w.rows.Scan(append(dest, w.title)...)
}
