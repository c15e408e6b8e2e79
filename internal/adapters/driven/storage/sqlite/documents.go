package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, origin, external_id, kind, title, reference, jurisdiction,
	legal_domain, language, published_at, url, content, sections, content_hash,
	metadata, created_at, updated_at`

const chunkColumns = `id, document_id, ordinal, role, content, citation, url, kind,
	jurisdiction, legal_domain, article_refs, embedding, metadata`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// UpsertDocument stores or updates a document keyed by (origin, external_id).
// CreatedAt of an existing row is preserved.
func (s *documentStore) UpsertDocument(ctx context.Context, doc *domain.LegalDocument) error {
	return upsertDocument(ctx, s.store.db, doc)
}

// ReplaceDocument upserts doc and swaps its chunk set in one transaction,
// so the stored content hash always describes the stored chunks.
func (s *documentStore) ReplaceDocument(ctx context.Context, doc *domain.LegalDocument, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("replace document", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := upsertDocument(ctx, tx, doc); err != nil {
		return err
	}
	if err := replaceChunks(ctx, tx, doc.ID, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return writeError("replace document", fmt.Errorf("committing: %w", err))
	}
	return nil
}

func upsertDocument(ctx context.Context, db execer, doc *domain.LegalDocument) error {
	if doc == nil || doc.Origin == "" || doc.ExternalID == "" {
		return fmt.Errorf("%w: document needs origin and external id", domain.ErrInvalidInput)
	}

	sectionsJSON, err := json.Marshal(doc.Sections)
	if err != nil {
		return fmt.Errorf("marshalling sections: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = db.ExecContext(ctx, `
		INSERT INTO legal_documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(origin, external_id) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			reference = excluded.reference,
			jurisdiction = excluded.jurisdiction,
			legal_domain = excluded.legal_domain,
			language = excluded.language,
			published_at = excluded.published_at,
			url = excluded.url,
			content = excluded.content,
			sections = excluded.sections,
			content_hash = excluded.content_hash,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Origin, doc.ExternalID, string(doc.Kind), doc.Title, doc.Reference,
		doc.Jurisdiction, string(doc.LegalDomain), doc.Language,
		formatNullableTime(doc.PublishedAt), doc.URL, doc.Text, string(sectionsJSON),
		doc.ContentHash, string(metadataJSON), formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return writeError("upsert document", err)
	}
	return nil
}

// ReplaceChunks swaps the chunk set of a document in one transaction.
func (s *documentStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("replace chunks", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := replaceChunks(ctx, tx, documentID, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return writeError("replace chunks", fmt.Errorf("committing: %w", err))
	}
	return nil
}

func replaceChunks(ctx context.Context, tx execer, documentID string, chunks []domain.Chunk) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM legal_chunks WHERE document_id = ?", documentID); err != nil {
		return writeError("replace chunks", fmt.Errorf("deleting chunks: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO legal_chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return writeError("replace chunks", fmt.Errorf("preparing statement: %w", err))
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if c.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to document %s", domain.ErrInvalidInput, c.ID, c.DocumentID)
		}
		refsJSON, err := json.Marshal(nonNilStrings(c.ArticleRefs))
		if err != nil {
			return fmt.Errorf("marshalling article refs: %w", err)
		}
		metadataJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Ordinal, string(c.Role), c.Text,
			c.Citation, c.URL, string(c.Kind), c.Jurisdiction, string(c.LegalDomain),
			string(refsJSON), float32SliceToBytes(c.Embedding), string(metadataJSON)); err != nil {
			return writeError("replace chunks", fmt.Errorf("inserting chunk %d: %w", c.Ordinal, err))
		}
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.LegalDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM legal_documents WHERE id = ?", id)
	return scanDocument(row)
}

// FindDocument retrieves a document by its natural key.
func (s *documentStore) FindDocument(ctx context.Context, origin, externalID string) (*domain.LegalDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM legal_documents WHERE origin = ? AND external_id = ?",
		origin, externalID)
	return scanDocument(row)
}

// GetChunks retrieves all chunks of a document ordered by ordinal.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM legal_chunks WHERE document_id = ? ORDER BY ordinal",
		documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
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
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ListDocuments returns all documents of an origin ordered by external ID.
func (s *documentStore) ListDocuments(ctx context.Context, origin string) ([]domain.LegalDocument, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM legal_documents WHERE origin = ? ORDER BY external_id",
		origin)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.LegalDocument //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// CountChunks returns the total number of chunks and how many carry a vector.
func (s *documentStore) CountChunks(ctx context.Context) (total, embedded int, err error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(embedding) FROM legal_chunks
	`)
	if err := row.Scan(&total, &embedded); err != nil {
		return 0, 0, fmt.Errorf("counting chunks: %w", err)
	}
	return total, embedded, nil
}

// scanDocument scans a single document row.
func scanDocument(row scanner) (*domain.LegalDocument, error) {
	var doc domain.LegalDocument
	var kind, legalDomain, sectionsJSON, metadataJSON, createdAt, updatedAt string
	var publishedAt sql.NullString

	if err := row.Scan(&doc.ID, &doc.Origin, &doc.ExternalID, &kind, &doc.Title, &doc.Reference,
		&doc.Jurisdiction, &legalDomain, &doc.Language, &publishedAt, &doc.URL, &doc.Text,
		&sectionsJSON, &doc.ContentHash, &metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Kind = domain.DocumentKind(kind)
	doc.LegalDomain = domain.LegalDomain(legalDomain)
	doc.PublishedAt = parseNullableTime(publishedAt)
	doc.CreatedAt = parseNullableTime(sql.NullString{String: createdAt, Valid: true})
	doc.UpdatedAt = parseNullableTime(sql.NullString{String: updatedAt, Valid: true})

	if err := json.Unmarshal([]byte(sectionsJSON), &doc.Sections); err != nil {
		return nil, fmt.Errorf("unmarshaling sections: %w", err)
	}
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// scanChunk scans a chunk row selected with chunkColumns.
func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var role, kind, legalDomain, refsJSON, metadataJSON string
	var embeddingBlob []byte

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &role, &chunk.Text,
		&chunk.Citation, &chunk.URL, &kind, &chunk.Jurisdiction, &legalDomain,
		&refsJSON, &embeddingBlob, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Role = domain.ChunkRole(role)
	chunk.Kind = domain.DocumentKind(kind)
	chunk.LegalDomain = domain.LegalDomain(legalDomain)
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if err := json.Unmarshal([]byte(refsJSON), &chunk.ArticleRefs); err != nil {
		return nil, fmt.Errorf("unmarshaling article refs: %w", err)
	}
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
