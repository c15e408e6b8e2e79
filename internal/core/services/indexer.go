package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Indexer = (*Indexer)(nil)

// IndexerConfig tunes batching and retries.
type IndexerConfig struct {
	// BatchSize is the number of chunks per provider call. Default 96.
	BatchSize int

	// MaxAttempts is the number of tries per batch. Default 3.
	MaxAttempts int

	// BaseDelay is the first backoff delay, doubled per attempt. Default 1s.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Default 10s.
	MaxDelay time.Duration
}

func (c *IndexerConfig) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 96
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
}

// Indexer embeds chunks in fixed-size batches and writes their vectors.
type Indexer struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	cfg      IndexerConfig
}

// NewIndexer creates an indexer. A nil embedder makes every call fail with
// domain.ErrEmbeddingUnavailable.
func NewIndexer(embedder driven.EmbeddingService, vectors driven.VectorStore, cfg IndexerConfig) *Indexer {
	cfg.applyDefaults()
	if embedder != nil && cfg.BatchSize > maxBatch(embedder) {
		cfg.BatchSize = maxBatch(embedder)
	}
	return &Indexer{embedder: embedder, vectors: vectors, cfg: cfg}
}

// BatchSize returns the effective batch size.
func (i *Indexer) BatchSize() int {
	return i.cfg.BatchSize
}

// EmbedAndStore embeds chunks batch by batch. A batch that keeps failing
// is reported in Failed and the remaining batches still run. Dimension
// mismatches and store failures abort the call.
func (i *Indexer) EmbedAndStore(ctx context.Context, chunks []domain.Chunk) (*domain.IndexReport, error) {
	report := &domain.IndexReport{}
	if i.embedder == nil {
		return report, domain.ErrEmbeddingUnavailable
	}

	for start := 0; start < len(chunks); start += i.cfg.BatchSize {
		end := min(start+i.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]

		vectors, err := i.embedWithRetry(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			if errors.Is(err, domain.ErrDimensionMismatch) {
				return report, err
			}
			logger.Warn("Embedding batch of %d chunks failed: %v", len(batch), err)
			report.Failed = append(report.Failed, domain.BatchFailure{
				ChunkIDs: chunkIDs(batch),
				Reason:   err.Error(),
			})
			continue
		}

		embedded := make([]domain.Chunk, len(batch))
		for j := range batch {
			embedded[j] = batch[j]
			embedded[j].Embedding = vectors[j]
		}
		if err := i.vectors.UpsertEmbeddings(ctx, embedded); err != nil {
			return report, fmt.Errorf("store embeddings: %w", err)
		}
		report.Embedded += len(embedded)
		logger.Debug("Embedded %d chunks", len(embedded))
	}
	return report, nil
}

// EmbedPending embeds every chunk that has no vector yet, in ID order.
// Chunks of failed batches are skipped for the rest of the pass.
func (i *Indexer) EmbedPending(ctx context.Context) (*domain.IndexReport, error) {
	report := &domain.IndexReport{}
	if i.embedder == nil {
		return report, domain.ErrEmbeddingUnavailable
	}

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pending, err := i.vectors.PendingChunks(ctx, after, i.cfg.BatchSize)
		if err != nil {
			return report, fmt.Errorf("list pending chunks: %w", err)
		}
		if len(pending) == 0 {
			break
		}
		after = pending[len(pending)-1].ID

		res, err := i.EmbedAndStore(ctx, pending)
		report.Merge(res)
		if err != nil {
			return report, err
		}
	}

	logger.Info("Embedded %d pending chunks, %d left for the next pass", report.Embedded, report.FailedChunks())
	return report, nil
}

// RebuildIndex rebuilds the vector store's nearest-neighbour index.
func (i *Indexer) RebuildIndex(ctx context.Context) error {
	start := time.Now()
	if err := i.vectors.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	logger.Info("Rebuilt vector index in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// embedWithRetry calls the provider, retrying retryable failures with
// exponential backoff.
func (i *Indexer) embedWithRetry(ctx context.Context, batch []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for j := range batch {
		texts[j] = batch[j].Text
	}

	var lastErr error
	for attempt := 0; attempt < i.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, i.delay(attempt)); err != nil {
				return nil, err
			}
		}

		vectors, err := i.embedder.EmbedBatch(ctx, texts, driven.InputDocument)
		if err == nil {
			return vectors, i.checkVectors(vectors, len(texts))
		}
		lastErr = err
		if !domain.IsRetryable(err) {
			return nil, err
		}
		logger.Debug("Embedding attempt %d/%d failed: %v", attempt+1, i.cfg.MaxAttempts, err)
	}
	return nil, fmt.Errorf("after %d attempts: %w", i.cfg.MaxAttempts, lastErr)
}

func (i *Indexer) checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return &domain.EmbeddingProviderError{
			Provider: i.embedder.ModelName(),
			Err:      fmt.Errorf("got %d vectors for %d texts", len(vectors), want),
		}
	}
	dims := i.embedder.Dimensions()
	for j, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", domain.ErrDimensionMismatch, j, len(v), dims)
		}
	}
	return nil
}

func (i *Indexer) delay(attempt int) time.Duration {
	d := i.cfg.BaseDelay << (attempt - 1)
	if d <= 0 || d > i.cfg.MaxDelay {
		d = i.cfg.MaxDelay
	}
	return d
}

// batchLimiter is implemented by providers with a per-call input bound.
type batchLimiter interface {
	BatchLimit() int
}

func maxBatch(e driven.EmbeddingService) int {
	if l, ok := e.(batchLimiter); ok && l.BatchLimit() > 0 {
		return l.BatchLimit()
	}
	return int(^uint(0) >> 1)
}

func chunkIDs(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].ID
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
