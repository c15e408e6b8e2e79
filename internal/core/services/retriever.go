package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

const (
	// DefaultThreshold is the minimum cosine similarity for evidence.
	DefaultThreshold = 0.35

	// DefaultTopK is the number of neighbours requested from the store.
	DefaultTopK = 10

	defaultQueryCacheSize = 512
)

// RetrieverConfig tunes the grounding gate.
type RetrieverConfig struct {
	// TopK is the number of neighbours searched. Default 10.
	TopK int

	// Threshold is the minimum cosine similarity kept, in [-1, 1]. Nil
	// uses 0.35; zero and negative values are honoured.
	Threshold *float64

	// CacheSize is the number of query embeddings kept. Negative disables the cache.
	CacheSize int
}

// Retriever turns a query into thresholded evidence or an ungrounded
// verdict. It holds no mutable state besides the query cache.
type Retriever struct {
	embedder  driven.EmbeddingService
	vectors   driven.VectorStore
	topK      int
	threshold float64
	cache     *lru.Cache[string, []float32]
}

// NewRetriever creates a retriever.
func NewRetriever(embedder driven.EmbeddingService, vectors driven.VectorStore, cfg RetrieverConfig) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		vectors:   vectors,
		topK:      cfg.TopK,
		threshold: DefaultThreshold,
	}
	if r.topK <= 0 {
		r.topK = DefaultTopK
	}
	if t := cfg.Threshold; t != nil && !math.IsNaN(*t) {
		r.threshold = max(-1, min(*t, 1))
	}

	size := cfg.CacheSize
	if size == 0 {
		size = defaultQueryCacheSize
	}
	if size > 0 {
		// lru.New only fails on a non-positive size.
		r.cache, _ = lru.New[string, []float32](size)
	}
	return r
}

// Threshold returns the configured minimum score.
func (r *Retriever) Threshold() float64 {
	return r.threshold
}

// TopK returns the configured neighbour count.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve embeds query, searches with filter and keeps results at or
// above the threshold. No results is VerdictUngrounded with a nil bundle.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter domain.RetrievalFilter) (*domain.Retrieval, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, &domain.RetrievalError{Stage: "embedding", Err: err}
	}

	results, err := r.vectors.Search(ctx, vector, r.topK, filter)
	if err != nil {
		return nil, &domain.RetrievalError{Stage: "search", Err: err}
	}

	retrieval := &domain.Retrieval{Verdict: domain.VerdictUngrounded}
	kept := make([]domain.ScoredChunk, 0, len(results))
	scored := false
	for _, res := range results {
		// A zero-norm vector yields NaN, which is no evidence.
		if math.IsNaN(res.Score) {
			continue
		}
		if !scored || res.Score > retrieval.TopScore {
			retrieval.TopScore = res.Score
			scored = true
		}
		if res.Score < r.threshold || !filter.Matches(&res.Chunk) {
			continue
		}
		kept = append(kept, res)
	}

	if len(kept) == 0 {
		logger.Debug("No evidence for query (top score %.3f, threshold %.2f)", retrieval.TopScore, r.threshold)
		return retrieval, nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Chunk.ID < kept[j].Chunk.ID
	})

	retrieval.Verdict = domain.VerdictGrounded
	retrieval.Evidence = &domain.EvidenceBundle{
		Query:     query,
		Items:     kept,
		MaxScore:  kept[0].Score,
		Threshold: r.threshold,
	}
	return retrieval, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if r.cache != nil {
		if v, ok := r.cache.Get(query); ok {
			return v, nil
		}
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{query}, driven.InputQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}
	if dims := r.embedder.Dimensions(); len(vectors[0]) != dims {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, want %d",
			domain.ErrDimensionMismatch, len(vectors[0]), dims)
	}

	if r.cache != nil {
		r.cache.Add(query, vectors[0])
	}
	return vectors[0], nil
}
