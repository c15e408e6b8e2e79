package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

func TestExtractSourceID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid source documents URI", "lexgate://sources/fedlex/documents", "fedlex"},
		{"invalid prefix", "file://sources/fedlex/documents", ""},
		{"missing documents suffix", "lexgate://sources/fedlex", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSourceID(tt.uri))
		})
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid document URI", "lexgate://documents/doc-456", "doc-456"},
		{"invalid prefix", "file://documents/doc-456", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	ports.Retriever = &mockRetriever{}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSourcesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil source service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("lexgate://sources"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists sources with last run", func(t *testing.T) {
		ended := time.Date(2026, 3, 1, 3, 10, 0, 0, time.UTC)
		source := &mockSourceService{
			sources: []driving.SourceInfo{
				{ID: "fedlex", Type: "fedlex", Kind: domain.KindStatute, Schedule: "0 3 * * *"},
				{ID: "vd", Type: "cantonal", Kind: domain.KindStatute, Filters: map[string]string{"cantons": "VD"}},
			},
			runs: map[string][]domain.RunRecord{
				"fedlex": {{SourceID: "fedlex", EndedAt: ended, Success: true}},
			},
		}
		server := newTestServer(t, &Ports{Source: source})

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("lexgate://sources"))

		require.NoError(t, err)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"id": "fedlex"`)
		assert.Contains(t, text, `"last_run": "2026-03-01T03:10:00Z"`)
		assert.Contains(t, text, `"cantons": "VD"`)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("history failure still lists", func(t *testing.T) {
		source := &mockSourceService{
			sources: []driving.SourceInfo{{ID: "fedlex", Type: "fedlex"}},
			err:     errors.New("database locked"),
		}
		server := newTestServer(t, &Ports{Source: source})

		result, err := server.handleSourcesResource(ctx, makeReadResourceRequest("lexgate://sources"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "fedlex")
		assert.NotContains(t, result.Contents[0].Text, "last_run")
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexgate://sources/fedlex/documents"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{}})
		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexgate://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		doc := &mockDocumentService{
			documents: []domain.LegalDocument{
				{ID: "doc-1", Reference: "RS 220", Title: "Code des obligations", Kind: domain.KindStatute, Jurisdiction: "CH"},
				{ID: "doc-2", Reference: "ATF 142 III 123", Kind: domain.KindDecision, Jurisdiction: "CH"},
			},
		}
		server := newTestServer(t, &Ports{Document: doc})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexgate://sources/fedlex/documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "RS 220")
		assert.Contains(t, result.Contents[0].Text, "ATF 142 III 123")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: errors.New("storage error")}})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexgate://sources/fedlex/documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})

	t.Run("handles empty document list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{documents: []domain.LegalDocument{}}})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexgate://sources/fedlex/documents"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{}})
		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexgate://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("renders chunks with citations", func(t *testing.T) {
		doc := &mockDocumentService{chunks: []domain.Chunk{
			{Citation: "Art. 1 CO", Text: "Le contrat est parfait..."},
			{Citation: "Art. 2 CO", Text: "Si les parties se sont mises d'accord..."},
		}}
		server := newTestServer(t, &Ports{Document: doc})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexgate://documents/doc-1"))

		require.NoError(t, err)
		assert.Equal(t,
			"[Art. 1 CO]\nLe contrat est parfait...\n\n[Art. 2 CO]\nSi les parties se sont mises d'accord...",
			result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: domain.ErrNotFound}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexgate://documents/nope"))

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{err: errors.New("disk")}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexgate://documents/doc-1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document chunks")
	})
}
