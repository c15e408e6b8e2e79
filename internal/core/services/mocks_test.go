package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// --- Catalog fetcher ---

// mockFetcher serves a fixed catalog. Cursors are page indexes.
type mockFetcher struct {
	sourceID string
	pages    [][]domain.CatalogEntry
	content  func(entry domain.CatalogEntry) []byte

	mu         sync.Mutex
	listCalls  []string
	fetchCalls map[string]int

	// listErrAt fails ListCatalog for that page index once.
	listErrAt int
	listErr   error

	// stall returns the requested cursor again for non-final pages.
	stall bool

	// onFetch runs before every fetch.
	onFetch func(entry domain.CatalogEntry)
}

func newMockFetcher(sourceID string, pages [][]domain.CatalogEntry) *mockFetcher {
	return &mockFetcher{
		sourceID:   sourceID,
		pages:      pages,
		fetchCalls: make(map[string]int),
		listErrAt:  -1,
		content: func(entry domain.CatalogEntry) []byte {
			return []byte(statuteText(entry.CatalogID))
		},
	}
}

func (f *mockFetcher) SourceID() string          { return f.sourceID }
func (f *mockFetcher) Kind() domain.DocumentKind { return domain.KindStatute }

func (f *mockFetcher) ListCatalog(ctx context.Context, cursor string) (*domain.CatalogPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", cursor)
		}
		idx = n
	}

	f.mu.Lock()
	f.listCalls = append(f.listCalls, cursor)
	if idx == f.listErrAt && f.listErr != nil {
		err := f.listErr
		f.listErr = nil
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	if idx >= len(f.pages) {
		return &domain.CatalogPage{Done: true}, nil
	}
	page := &domain.CatalogPage{
		Entries:    f.pages[idx],
		NextCursor: strconv.Itoa(idx + 1),
		Done:       idx == len(f.pages)-1,
	}
	if f.stall && !page.Done {
		page.NextCursor = cursor
	}
	return page, nil
}

func (f *mockFetcher) FetchItem(ctx context.Context, entry domain.CatalogEntry) (*domain.RawItem, error) {
	if f.onFetch != nil {
		f.onFetch(entry)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.fetchCalls[entry.CatalogID]++
	f.mu.Unlock()

	if entry.Metadata["fetch"] == "fail" {
		return nil, &domain.TransientFetchError{URL: entry.URL, StatusCode: 503, Err: errors.New("service unavailable")}
	}
	return &domain.RawItem{
		Entry:       entry,
		URL:         entry.URL,
		ContentType: "text/html",
		Content:     f.content(entry),
		FetchedAt:   time.Now(),
	}, nil
}

func (f *mockFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.fetchCalls {
		n += c
	}
	return n
}

// catalogPages builds pages of statute entries named "<prefix>-<page>-<item>".
func catalogPages(sourceID string, pages, perPage int) [][]domain.CatalogEntry {
	out := make([][]domain.CatalogEntry, pages)
	for p := range out {
		for i := 0; i < perPage; i++ {
			id := fmt.Sprintf("act-%d-%03d", p+1, i)
			out[p] = append(out[p], domain.CatalogEntry{
				SourceID:  sourceID,
				CatalogID: id,
				Kind:      domain.KindStatute,
				Format:    domain.FormatMarkup,
				Title:     "Loi " + id,
				URL:       "https://example.test/" + id,
				Metadata: map[string]string{
					"reference":    "L" + id,
					"jurisdiction": domain.JurisdictionFederal,
					"language":     "fr",
					"date":         "2024-01-01",
				},
			})
		}
	}
	return out
}

func statuteText(id string) string {
	return fmt.Sprintf("Art. 1 Objet\nLa présente loi %s règle la responsabilité du bailleur.\n\n"+
		"Art. 2 Champ\nElle s'applique aux baux d'habitation conclus dès son entrée en vigueur.", id)
}

// --- Extraction ---

// stubExtractors returns the payload as text. The payload "corrupt" fails.
type stubExtractors struct{}

func (stubExtractors) Register(driven.Extractor) {}

func (stubExtractors) Extract(_ context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	if string(raw.Content) == "corrupt" {
		return nil, &domain.ExtractionError{ItemID: raw.Entry.CatalogID, Err: errors.New("malformed payload")}
	}
	return &domain.Extraction{Text: string(raw.Content)}, nil
}

// --- Embedding ---

// fakeEmbedder returns deterministic vectors, or scripted vectors
// for known texts.
type fakeEmbedder struct {
	dims    int
	vectors map[string][]float32

	mu    sync.Mutex
	calls int
	texts int

	// failures is consumed one per call before succeeding.
	failures []error
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, _ driven.InputType) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.calls++
	if len(e.failures) > 0 {
		err := e.failures[0]
		e.failures = e.failures[1:]
		e.mu.Unlock()
		return nil, err
	}
	e.texts += len(texts)
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = hashVector(text, e.dims)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int              { return e.dims }
func (e *fakeEmbedder) ModelName() string            { return "fake" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func hashVector(text string, dims int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	v := make([]float32, dims)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed>>40)/float32(1<<24) + 0.01
	}
	return v
}

func retryableErr() error {
	return &domain.EmbeddingProviderError{Provider: "fake", StatusCode: 429, Retryable: true, Err: errors.New("rate limited")}
}

func permanentErr() error {
	return &domain.EmbeddingProviderError{Provider: "fake", StatusCode: 400, Err: errors.New("bad request")}
}

// --- Vector search ---

// stubVectors returns fixed search results.
type stubVectors struct {
	results []domain.ScoredChunk
	err     error

	mu       sync.Mutex
	searches int
	lastK    int
	filter   domain.RetrievalFilter
}

func (s *stubVectors) PendingChunks(context.Context, string, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (s *stubVectors) UpsertEmbeddings(context.Context, []domain.Chunk) error { return nil }

func (s *stubVectors) Search(_ context.Context, _ []float32, k int, filter domain.RetrievalFilter) ([]domain.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	s.lastK = k
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.ScoredChunk, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *stubVectors) RebuildIndex(context.Context) error { return nil }

func scored(id, citation string, kind domain.DocumentKind, jurisdiction string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:           id,
			DocumentID:   "doc-" + id,
			Citation:     citation,
			URL:          "https://example.test/" + id,
			Text:         "Texte de " + citation,
			Kind:         kind,
			Jurisdiction: jurisdiction,
			LegalDomain:  domain.DomainCivil,
		},
		DocumentTitle: "Titre " + citation,
		Score:         score,
	}
}

// --- Ingestion coordinator ---

// mockCoordinator records Ingest calls and can block them.
type mockCoordinator struct {
	mu      sync.Mutex
	calls   map[string]int
	err     error
	block   chan struct{}
	started chan string
}

func newMockCoordinator() *mockCoordinator {
	return &mockCoordinator{calls: make(map[string]int), started: make(chan string, 16)}
}

func (m *mockCoordinator) Ingest(ctx context.Context, sourceID string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	m.mu.Lock()
	m.calls[sourceID]++
	block := m.block
	m.mu.Unlock()

	m.started <- sourceID
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return &domain.IngestReport{SourceID: sourceID}, ctx.Err()
		}
	}
	if opts.Trigger != domain.TriggerSchedule {
		return nil, errors.New("expected schedule trigger")
	}
	return &domain.IngestReport{SourceID: sourceID}, m.err
}

func (m *mockCoordinator) callCount(sourceID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[sourceID]
}

func (m *mockCoordinator) IngestAll(context.Context, driving.IngestOptions) ([]domain.IngestReport, error) {
	return nil, nil
}

func (m *mockCoordinator) Status(_ context.Context, sourceID string) (*driving.IngestStatus, error) {
	return &driving.IngestStatus{SourceID: sourceID}, nil
}

func (m *mockCoordinator) Sources() []string { return nil }

// --- Run history ---

// countingRunStore counts PruneHistory calls.
type countingRunStore struct {
	mu     sync.Mutex
	prunes int
	keep   int
}

func (s *countingRunStore) RecordRun(context.Context, domain.RunRecord) error { return nil }

func (s *countingRunStore) LastRun(context.Context, string) (*domain.RunRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *countingRunStore) History(context.Context, string, int) ([]domain.RunRecord, error) {
	return nil, nil
}

func (s *countingRunStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prunes++
	s.keep = keep
	return nil
}
