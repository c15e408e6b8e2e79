// Package postprocessors turns extracted documents into classified,
// citable chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/ids"
	"github.com/custodia-labs/lexgate/internal/postprocessors/citations"
)

// Ensure Pipeline implements the interface.
var _ driven.ChunkPipeline = (*Pipeline)(nil)

// Pipeline classifies a document, then dispatches it to the strategy
// registered for its kind.
type Pipeline struct {
	classifier driven.Classifier
	strategies map[domain.DocumentKind]driven.ChunkStrategy
}

// NewPipeline creates a pipeline. A later strategy for the same kind
// replaces an earlier one.
func NewPipeline(classifier driven.Classifier, strategies ...driven.ChunkStrategy) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		strategies: make(map[domain.DocumentKind]driven.ChunkStrategy),
	}
	for _, s := range strategies {
		p.Add(s)
	}
	return p
}

// Add registers a strategy for its kind.
func (p *Pipeline) Add(s driven.ChunkStrategy) {
	p.strategies[s.Kind()] = s
}

// Len returns the number of registered strategies.
func (p *Pipeline) Len() int {
	return len(p.strategies)
}

// Chunk classifies doc in place and returns its chunks with ordinals, IDs,
// filter metadata and article references assigned.
func (p *Pipeline) Chunk(ctx context.Context, doc *domain.LegalDocument) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil: %w", domain.ErrInvalidInput)
	}

	strategy, ok := p.strategies[doc.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no chunk strategy for kind %q", domain.ErrUnsupportedType, doc.Kind)
	}

	if p.classifier != nil {
		cls := p.classifier.Classify(doc)
		doc.Jurisdiction = cls.Jurisdiction
		doc.LegalDomain = cls.LegalDomain
	}

	chunks, err := strategy.Chunk(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
	}

	for i := range chunks {
		c := &chunks[i]
		c.Ordinal = i
		c.DocumentID = doc.ID
		c.ID = ids.Chunk(doc.ID, i)
		c.Kind = doc.Kind
		c.Jurisdiction = doc.Jurisdiction
		c.LegalDomain = doc.LegalDomain
		c.ArticleRefs = citations.ArticleRefs(c.Text)
		if c.URL == "" {
			c.URL = doc.URL
		}
		if c.Citation == "" {
			c.Citation = fmt.Sprintf("%s, §%d", doc.Reference, i+1)
		}
		if c.Metadata == nil {
			c.Metadata = make(map[string]any)
		}
	}
	return chunks, nil
}
