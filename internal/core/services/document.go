package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes stored documents.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// ListByOrigin returns all documents of a source.
func (s *DocumentService) ListByOrigin(ctx context.Context, origin string) ([]domain.LegalDocument, error) {
	return s.docStore.ListDocuments(ctx, origin)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.LegalDocument, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// GetChunks returns the chunks of a document ordered by ordinal.
func (s *DocumentService) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	// Verify document exists
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Ordinal < chunks[j].Ordinal
	})
	return chunks, nil
}

// GetDetails returns a display view of a document.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.GetChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	details := &driving.DocumentDetails{
		ID:           doc.ID,
		Origin:       doc.Origin,
		ExternalID:   doc.ExternalID,
		Kind:         doc.Kind,
		Title:        doc.Title,
		Reference:    doc.Reference,
		Jurisdiction: doc.Jurisdiction,
		LegalDomain:  doc.LegalDomain,
		URL:          doc.URL,
		ChunkCount:   len(chunks),
		PublishedAt:  doc.PublishedAt,
		UpdatedAt:    doc.UpdatedAt,
		Metadata:     make(map[string]string, len(doc.Metadata)),
	}
	for i := range chunks {
		details.Citations = append(details.Citations, chunks[i].Citation)
		if chunks[i].IsEmbedded() {
			details.EmbeddedCount++
		}
	}

	// Flatten metadata to string map
	for key, value := range doc.Metadata {
		details.Metadata[key] = fmt.Sprintf("%v", value)
	}
	return details, nil
}

// Stats returns corpus-wide chunk counts.
func (s *DocumentService) Stats(ctx context.Context) (*driving.CorpusStats, error) {
	total, embedded, err := s.docStore.CountChunks(ctx)
	if err != nil {
		return nil, err
	}
	return &driving.CorpusStats{Chunks: total, Embedded: embedded}, nil
}
