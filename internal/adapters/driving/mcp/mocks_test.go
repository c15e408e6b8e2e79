package mcp

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	retrieval *domain.Retrieval
	err       error

	gotQuery  string
	gotFilter domain.RetrievalFilter
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, filter domain.RetrievalFilter) (*domain.Retrieval, error) {
	m.gotQuery = query
	m.gotFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	if m.retrieval == nil {
		return &domain.Retrieval{Verdict: domain.VerdictUngrounded}, nil
	}
	return m.retrieval, nil
}

func (m *mockRetriever) Threshold() float64 { return 0.35 }

// mockAnswerer is a mock implementation of driving.Answerer.
type mockAnswerer struct {
	answer *domain.Answer
	err    error
}

func (m *mockAnswerer) Answer(_ context.Context, _ string, _ domain.RetrievalFilter) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockSourceService is a mock implementation of driving.SourceService.
type mockSourceService struct {
	sources []driving.SourceInfo
	runs    map[string][]domain.RunRecord
	err     error
}

func (m *mockSourceService) List() []driving.SourceInfo {
	return m.sources
}

func (m *mockSourceService) Get(sourceID string) (*driving.SourceInfo, error) {
	for i := range m.sources {
		if m.sources[i].ID == sourceID {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) Browse(_ context.Context, _, _ string) (*domain.CatalogPage, error) {
	return nil, m.err
}

func (m *mockSourceService) Failures(_ context.Context, _ string) ([]domain.ItemFailure, error) {
	return nil, m.err
}

func (m *mockSourceService) ClearFailures(_ context.Context, _ string) error {
	return m.err
}

func (m *mockSourceService) History(_ context.Context, sourceID string, _ int) ([]domain.RunRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.runs[sourceID], nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.LegalDocument
	chunks    []domain.Chunk
	err       error
}

func (m *mockDocumentService) ListByOrigin(_ context.Context, _ string) ([]domain.LegalDocument, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.LegalDocument, error) {
	return nil, m.err
}

func (m *mockDocumentService) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return nil, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (*driving.CorpusStats, error) {
	return &driving.CorpusStats{}, m.err
}
