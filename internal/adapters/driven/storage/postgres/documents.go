package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, origin, external_id, kind, title, reference, jurisdiction,
	legal_domain, language, published_at, url, content, sections, content_hash,
	metadata, created_at, updated_at`

const chunkColumns = `c.id, c.document_id, c.ordinal, c.role, c.content, c.citation, c.url, c.kind,
	c.jurisdiction, c.legal_domain, c.article_refs, c.embedding, c.metadata`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (s *documentStore) UpsertDocument(ctx context.Context, doc *domain.LegalDocument) error {
	return upsertDocument(ctx, s.store.db, doc)
}

// ReplaceDocument upserts doc and its chunk set in one transaction.
func (s *documentStore) ReplaceDocument(ctx context.Context, doc *domain.LegalDocument, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("replace document", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := upsertDocument(ctx, tx, doc); err != nil {
		return err
	}
	if err := s.replaceChunks(ctx, tx, doc.ID, chunks); err != nil {
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

	sectionsJSON, err := json.Marshal(nonNilSections(doc.Sections))
	if err != nil {
		return fmt.Errorf("marshalling sections: %w", err)
	}
	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	published := sql.NullTime{Time: doc.PublishedAt, Valid: !doc.PublishedAt.IsZero()}
	_, err = db.ExecContext(ctx, `
		INSERT INTO legal_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (origin, external_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			reference = EXCLUDED.reference,
			jurisdiction = EXCLUDED.jurisdiction,
			legal_domain = EXCLUDED.legal_domain,
			language = EXCLUDED.language,
			published_at = EXCLUDED.published_at,
			url = EXCLUDED.url,
			content = EXCLUDED.content,
			sections = EXCLUDED.sections,
			content_hash = EXCLUDED.content_hash,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, doc.ID, doc.Origin, doc.ExternalID, string(doc.Kind), doc.Title, doc.Reference,
		doc.Jurisdiction, string(doc.LegalDomain), doc.Language, published, doc.URL, doc.Text,
		string(sectionsJSON), doc.ContentHash, metadataJSON, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return writeError("upsert document", err)
	}
	return nil
}

func (s *documentStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("replace chunks", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.replaceChunks(ctx, tx, documentID, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return writeError("replace chunks", fmt.Errorf("committing: %w", err))
	}
	return nil
}

func (s *documentStore) replaceChunks(ctx context.Context, tx execer, documentID string, chunks []domain.Chunk) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM legal_chunks WHERE document_id = $1", documentID); err != nil {
		return writeError("replace chunks", fmt.Errorf("deleting chunks: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO legal_chunks (id, document_id, ordinal, role, content, citation, url, kind,
			jurisdiction, legal_domain, article_refs, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
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
		if c.IsEmbedded() && len(c.Embedding) != s.store.cfg.Dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, c.ID, len(c.Embedding), s.store.cfg.Dimensions)
		}
		metadataJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Ordinal, string(c.Role), c.Text,
			c.Citation, c.URL, string(c.Kind), c.Jurisdiction, string(c.LegalDomain),
			pq.Array(nonNilStrings(c.ArticleRefs)), vectorArg(c.Embedding), metadataJSON); err != nil {
			return writeError("replace chunks", fmt.Errorf("inserting chunk %d: %w", c.Ordinal, err))
		}
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.LegalDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM legal_documents WHERE id = $1", id)
	return scanDocument(row)
}

func (s *documentStore) FindDocument(ctx context.Context, origin, externalID string) (*domain.LegalDocument, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM legal_documents WHERE origin = $1 AND external_id = $2",
		origin, externalID)
	return scanDocument(row)
}

func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM legal_chunks c WHERE c.document_id = $1 ORDER BY c.ordinal",
		documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
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
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func (s *documentStore) ListDocuments(ctx context.Context, origin string) ([]domain.LegalDocument, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM legal_documents WHERE origin = $1 ORDER BY external_id",
		origin)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.LegalDocument
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

func (s *documentStore) CountChunks(ctx context.Context) (total, embedded int, err error) {
	err = s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(embedding) FROM legal_chunks").Scan(&total, &embedded)
	if err != nil {
		return 0, 0, fmt.Errorf("counting chunks: %w", err)
	}
	return total, embedded, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.LegalDocument, error) {
	var doc domain.LegalDocument
	var kind, legalDomain string
	var sectionsJSON, metadataJSON []byte
	var published sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Origin, &doc.ExternalID, &kind, &doc.Title, &doc.Reference,
		&doc.Jurisdiction, &legalDomain, &doc.Language, &published, &doc.URL, &doc.Text,
		&sectionsJSON, &doc.ContentHash, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Kind = domain.DocumentKind(kind)
	doc.LegalDomain = domain.LegalDomain(legalDomain)
	if published.Valid {
		doc.PublishedAt = published.Time
	}
	if err := json.Unmarshal(sectionsJSON, &doc.Sections); err != nil {
		return nil, fmt.Errorf("unmarshaling sections: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return &doc, nil
}

func scanChunk(row scanner, extra ...any) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var role, kind, legalDomain string
	var refs []string
	var embedding *pgvector.Vector
	var metadataJSON []byte

	dest := []any{&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &role, &chunk.Text,
		&chunk.Citation, &chunk.URL, &kind, &chunk.Jurisdiction, &legalDomain,
		pq.Array(&refs), &embedding, &metadataJSON}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Role = domain.ChunkRole(role)
	chunk.Kind = domain.DocumentKind(kind)
	chunk.LegalDomain = domain.LegalDomain(legalDomain)
	chunk.ArticleRefs = refs
	if embedding != nil {
		chunk.Embedding = embedding.Slice()
	}
	if err := json.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
	}
	return &chunk, nil
}

// vectorArg returns a SQL NULL for an empty embedding.
func vectorArg(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(b), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSections(s []domain.Section) []domain.Section {
	if s == nil {
		return []domain.Section{}
	}
	return s
}
