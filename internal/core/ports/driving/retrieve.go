package driving

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// Retriever returns grounded evidence for a query.
type Retriever interface {
	// Retrieve embeds the query, searches the index and applies the
	// relevance threshold. An empty result is an ungrounded verdict, not an
	// error. Infrastructure failures return *domain.RetrievalError.
	Retrieve(ctx context.Context, query string, filter domain.RetrievalFilter) (*domain.Retrieval, error)

	// Threshold returns the configured minimum score.
	Threshold() float64
}

// Answerer gates answer generation on grounded evidence.
type Answerer interface {
	// Answer refuses ungrounded queries without invoking the generator and
	// verifies every citation the generator returns against the evidence.
	Answer(ctx context.Context, query string, filter domain.RetrievalFilter) (*domain.Answer, error)
}

// EvidenceActions acts on a single evidence item from interactive surfaces.
type EvidenceActions interface {
	// CopyCitation copies the citation, URL and text to the clipboard.
	CopyCitation(item *domain.ScoredChunk) error

	// OpenSource opens the cited passage in the default browser.
	OpenSource(item *domain.ScoredChunk) error
}
