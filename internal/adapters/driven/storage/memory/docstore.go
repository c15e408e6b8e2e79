package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/storage/ranking"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure DocumentStore implements both interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.VectorStore   = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore and
// driven.VectorStore over the same chunk set. Search is an exact scan.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.LegalDocument
	keys      map[string]string // origin + "\x00" + external id -> document id
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.LegalDocument),
		keys:      make(map[string]string),
		chunks:    make(map[string][]domain.Chunk),
	}
}

func naturalKey(origin, externalID string) string {
	return origin + "\x00" + externalID
}

// UpsertDocument stores or updates a document keyed by (origin, external id).
func (s *DocumentStore) UpsertDocument(_ context.Context, doc *domain.LegalDocument) error {
	if err := validDocument(doc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(doc)
	return nil
}

// ReplaceChunks swaps the chunk set of a document atomically.
func (s *DocumentStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[documentID]; !ok {
		return &domain.StoreWriteError{Op: "replace chunks", Err: domain.ErrNotFound}
	}
	if err := validChunks(documentID, chunks); err != nil {
		return err
	}
	s.replaceLocked(documentID, chunks)
	return nil
}

// ReplaceDocument upserts doc and swaps its chunk set under one lock.
// Nothing is written when the chunks are rejected.
func (s *DocumentStore) ReplaceDocument(_ context.Context, doc *domain.LegalDocument, chunks []domain.Chunk) error {
	if err := validDocument(doc); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.ID
	if existing, ok := s.keys[naturalKey(doc.Origin, doc.ExternalID)]; ok {
		id = existing
	}
	if err := validChunks(id, chunks); err != nil {
		return err
	}
	s.upsertLocked(doc)
	s.replaceLocked(doc.ID, chunks)
	return nil
}

func validDocument(doc *domain.LegalDocument) error {
	if doc == nil || doc.Origin == "" || doc.ExternalID == "" {
		return fmt.Errorf("%w: document needs origin and external id", domain.ErrInvalidInput)
	}
	return nil
}

func validChunks(documentID string, chunks []domain.Chunk) error {
	seen := make(map[int]bool, len(chunks))
	for i := range chunks {
		if chunks[i].DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to document %s",
				domain.ErrInvalidInput, chunks[i].ID, chunks[i].DocumentID)
		}
		if seen[chunks[i].Ordinal] {
			return &domain.StoreWriteError{
				Op:  "replace chunks",
				Err: fmt.Errorf("duplicate ordinal %d", chunks[i].Ordinal),
			}
		}
		seen[chunks[i].Ordinal] = true
	}
	return nil
}

func (s *DocumentStore) upsertLocked(doc *domain.LegalDocument) {
	now := time.Now().UTC()
	key := naturalKey(doc.Origin, doc.ExternalID)
	if id, ok := s.keys[key]; ok {
		doc.ID = id
		doc.CreatedAt = s.documents[id].CreatedAt
	} else if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	s.keys[key] = doc.ID
	s.documents[doc.ID] = *doc
}

func (s *DocumentStore) replaceLocked(documentID string, chunks []domain.Chunk) {
	stored := make([]domain.Chunk, len(chunks))
	for i := range chunks {
		stored[i] = copyChunk(chunks[i])
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Ordinal < stored[j].Ordinal })
	s.chunks[documentID] = stored
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.LegalDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// FindDocument retrieves a document by its natural key.
func (s *DocumentStore) FindDocument(_ context.Context, origin, externalID string) (*domain.LegalDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.keys[naturalKey(origin, externalID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// GetChunks retrieves all chunks for a document ordered by ordinal.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[documentID]
	out := make([]domain.Chunk, len(stored))
	for i := range stored {
		out[i] = copyChunk(stored[i])
	}
	return out, nil
}

// ListDocuments returns all documents of an origin ordered by external ID.
func (s *DocumentStore) ListDocuments(_ context.Context, origin string) ([]domain.LegalDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.LegalDocument
	for _, doc := range s.documents {
		if doc.Origin == origin {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ExternalID < docs[j].ExternalID })
	return docs, nil
}

// CountChunks returns the total number of chunks and how many carry a vector.
func (s *DocumentStore) CountChunks(_ context.Context) (total, embedded int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for i := range chunks {
			total++
			if chunks[i].IsEmbedded() {
				embedded++
			}
		}
	}
	return total, embedded, nil
}

// PendingChunks returns up to limit un-embedded chunks with ID after afterID.
func (s *DocumentStore) PendingChunks(_ context.Context, afterID string, limit int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []domain.Chunk
	for _, chunks := range s.chunks {
		for i := range chunks {
			if !chunks[i].IsEmbedded() && chunks[i].ID > afterID {
				pending = append(pending, copyChunk(chunks[i]))
			}
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// UpsertEmbeddings sets the vector of each chunk by ID. Unknown IDs, and
// chunks whose stored text differs from the embedded text, are skipped.
func (s *DocumentStore) UpsertEmbeddings(_ context.Context, chunks []domain.Chunk) error {
	byID := make(map[string]*domain.Chunk, len(chunks))
	for i := range chunks {
		if !chunks[i].IsEmbedded() {
			return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunks[i].ID)
		}
		byID[chunks[i].ID] = &chunks[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, stored := range s.chunks {
		for i := range stored {
			if c, ok := byID[stored[i].ID]; ok && c.Text == stored[i].Text {
				stored[i].Embedding = append([]float32(nil), c.Embedding...)
			}
		}
		s.chunks[docID] = stored
	}
	return nil
}

// Search ranks every embedded chunk matching filter by cosine similarity.
func (s *DocumentStore) Search(
	_ context.Context, vector []float32, k int, filter domain.RetrievalFilter,
) ([]domain.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	top := ranking.NewTopK(k)
	for docID, chunks := range s.chunks {
		title := s.documents[docID].Title
		for i := range chunks {
			c := &chunks[i]
			if !c.IsEmbedded() || !filter.Matches(c) {
				continue
			}
			if len(c.Embedding) != len(vector) {
				return nil, fmt.Errorf("%w: stored %d, query %d",
					domain.ErrDimensionMismatch, len(c.Embedding), len(vector))
			}
			top.Add(domain.ScoredChunk{
				Chunk:         copyChunk(*c),
				DocumentTitle: title,
				Score:         ranking.Cosine(vector, c.Embedding),
			})
		}
	}
	return top.Results(), nil
}

// RebuildIndex is a no-op for the exact scan.
func (s *DocumentStore) RebuildIndex(ctx context.Context) error {
	return ctx.Err()
}

func copyChunk(c domain.Chunk) domain.Chunk {
	if c.Embedding != nil {
		c.Embedding = append([]float32(nil), c.Embedding...)
	}
	if c.ArticleRefs != nil {
		c.ArticleRefs = append([]string(nil), c.ArticleRefs...)
	}
	return c
}
