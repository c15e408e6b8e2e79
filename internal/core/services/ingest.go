package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/ids"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// Ensure IngestCoordinator implements the interface.
var _ driving.IngestionCoordinator = (*IngestCoordinator)(nil)

const (
	defaultWorkers           = 4
	defaultSourceConcurrency = 2
	defaultEmbedBatch        = 96
)

// IngestSource pairs a source configuration with its fetcher.
type IngestSource struct {
	Config  domain.SourceConfig
	Fetcher driven.Fetcher
}

// IngestCoordinator drives sources through fetch, extract, chunk, store
// and index. Each source keeps its own cursor; sources share nothing.
type IngestCoordinator struct {
	sources      map[string]IngestSource
	order        []string
	extractors   driven.ExtractorRegistry
	pipeline     driven.ChunkPipeline
	docStore     driven.DocumentStore
	cursorStore  driven.CursorStore
	failureStore driven.FailureStore
	runStore     driven.RunStore
	indexer      driving.Indexer

	concurrency int
	embedBatch  int

	mu      sync.RWMutex
	running map[string]bool
}

// NewIngestCoordinator creates a coordinator. runStore and indexer are
// optional: without an indexer chunks stay pending for "lexgate index".
func NewIngestCoordinator(
	sources []IngestSource,
	extractors driven.ExtractorRegistry,
	pipeline driven.ChunkPipeline,
	docStore driven.DocumentStore,
	cursorStore driven.CursorStore,
	failureStore driven.FailureStore,
	runStore driven.RunStore,
	indexer driving.Indexer,
) *IngestCoordinator {
	c := &IngestCoordinator{
		sources:      make(map[string]IngestSource, len(sources)),
		extractors:   extractors,
		pipeline:     pipeline,
		docStore:     docStore,
		cursorStore:  cursorStore,
		failureStore: failureStore,
		runStore:     runStore,
		indexer:      indexer,
		concurrency:  defaultSourceConcurrency,
		embedBatch:   defaultEmbedBatch,
		running:      make(map[string]bool),
	}
	for _, src := range sources {
		if _, dup := c.sources[src.Config.ID]; !dup {
			c.order = append(c.order, src.Config.ID)
		}
		c.sources[src.Config.ID] = src
	}
	return c
}

// SetConcurrency bounds how many sources IngestAll runs at once.
func (c *IngestCoordinator) SetConcurrency(n int) {
	if n > 0 {
		c.concurrency = n
	}
}

// SetEmbedBatchSize sets how many chunks the inline consumer hands to the
// indexer per call.
func (c *IngestCoordinator) SetEmbedBatchSize(n int) {
	if n > 0 {
		c.embedBatch = n
	}
}

// Sources returns the configured source IDs in configuration order.
func (c *IngestCoordinator) Sources() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// IngestAll runs every configured source. A failing source does not stop
// the others; the errors are joined.
func (c *IngestCoordinator) IngestAll(ctx context.Context, opts driving.IngestOptions) ([]domain.IngestReport, error) {
	reports := make([]domain.IngestReport, len(c.order))
	errs := make([]error, len(c.order))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range c.order {
		g.Go(func() error {
			report, err := c.Ingest(ctx, id, opts)
			if report != nil {
				reports[i] = *report
			}
			if err != nil {
				errs[i] = fmt.Errorf("source %s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// Status returns the committed state of a source.
func (c *IngestCoordinator) Status(ctx context.Context, sourceID string) (*driving.IngestStatus, error) {
	if _, ok := c.sources[sourceID]; !ok {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
	}

	c.mu.RLock()
	status := &driving.IngestStatus{SourceID: sourceID, Running: c.running[sourceID]}
	c.mu.RUnlock()

	cursor, err := c.cursorStore.Get(ctx, sourceID)
	switch {
	case err == nil:
		status.Cursor = cursor
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get cursor: %w", err)
	}

	failures, err := c.failureStore.List(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	status.FailureCount = len(failures)

	if c.runStore != nil {
		last, err := c.runStore.LastRun(ctx, sourceID)
		switch {
		case err == nil:
			status.LastRun = last
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("last run: %w", err)
		}
	}
	return status, nil
}

// Ingest runs one source until the catalog is exhausted, MaxPages is
// reached, or ctx is cancelled. The returned report is never nil once the
// source exists and its counts are accurate even when err is not.
func (c *IngestCoordinator) Ingest(
	ctx context.Context, sourceID string, opts driving.IngestOptions,
) (*domain.IngestReport, error) {
	src, ok := c.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrNotFound)
	}

	c.mu.Lock()
	if c.running[sourceID] {
		c.mu.Unlock()
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrIngestInProgress)
	}
	c.running[sourceID] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.running, sourceID)
		c.mu.Unlock()
	}()

	trigger := opts.Trigger
	if trigger == "" {
		trigger = domain.TriggerManual
	}

	report := &domain.IngestReport{SourceID: sourceID, StartedAt: time.Now()}
	logger.Info("Starting ingestion for source %s", sourceID)

	err := c.runSource(ctx, src, opts, report)
	report.FinishedAt = time.Now()

	if c.runStore != nil {
		// The run context may be cancelled; history is still written.
		if recErr := c.runStore.RecordRun(context.WithoutCancel(ctx), domain.NewRunRecord(report, trigger, err)); recErr != nil {
			logger.Warn("Failed to record run for %s: %v", sourceID, recErr)
		}
	}

	if err != nil {
		logger.Error("Ingestion of %s stopped: %v", sourceID, err)
		return report, err
	}
	logger.Info("Ingestion of %s complete: %d pages, %d documents (%d unchanged), %d chunks, %d failures",
		sourceID, report.Pages, report.Documents, report.Unchanged, report.Chunks, len(report.Failures))
	return report, nil
}

// runSource loads the cursor and runs the page loop, workers and embedding
// consumer for one source.
func (c *IngestCoordinator) runSource(
	ctx context.Context, src IngestSource, opts driving.IngestOptions, report *domain.IngestReport,
) error {
	sourceID := src.Config.ID

	cursor, err := c.loadCursor(ctx, sourceID, opts.Reset)
	if err != nil {
		return err
	}

	workers := src.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	run := &sourceRun{
		coordinator: c,
		src:         src,
		report:      report,
		seen:        make(map[string]bool),
	}

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan pageItem, workers)

	var chunks chan domain.Chunk
	if c.indexer != nil && !opts.SkipEmbedding {
		chunks = make(chan domain.Chunk, c.embedBatch)
		g.Go(func() error { return run.consumeChunks(gctx, chunks, c.embedBatch) })
	}

	var workerWG sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		g.Go(func() error {
			defer workerWG.Done()
			return run.work(gctx, items, chunks)
		})
	}

	g.Go(func() error {
		defer func() {
			workerWG.Wait()
			if chunks != nil {
				close(chunks)
			}
		}()
		defer close(items)
		return run.paginate(gctx, cursor, opts.MaxPages, items)
	})

	err = g.Wait()
	for item := range items {
		item.done()
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return err
}

// loadCursor returns the cursor to resume from. A finished cursor starts a
// new pass from the first page; unchanged documents are skipped by hash.
func (c *IngestCoordinator) loadCursor(ctx context.Context, sourceID string, reset bool) (domain.IngestionCursor, error) {
	fresh := domain.IngestionCursor{SourceID: sourceID}

	if reset {
		if err := c.cursorStore.Delete(ctx, sourceID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fresh, fmt.Errorf("reset cursor: %w", err)
		}
		if err := c.failureStore.Clear(ctx, sourceID); err != nil {
			return fresh, fmt.Errorf("clear failures: %w", err)
		}
		return fresh, nil
	}

	cursor, err := c.cursorStore.Get(ctx, sourceID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fresh, nil
	case err != nil:
		return fresh, fmt.Errorf("get cursor: %w", err)
	case cursor.Done:
		logger.Debug("Source %s was fully harvested, starting a new pass", sourceID)
		fresh.Fetched = cursor.Fetched
		return fresh, nil
	default:
		logger.Info("Resuming %s at page %d (%d entries fetched)", sourceID, cursor.Pages+1, cursor.Fetched)
		return *cursor, nil
	}
}

// pageItem is one entry handed to a worker. done is called once the item
// finished, whatever its outcome.
type pageItem struct {
	entry domain.CatalogEntry
	done  func()
}

// sourceRun is the state shared by the goroutines of one source run.
type sourceRun struct {
	coordinator *IngestCoordinator
	src         IngestSource

	aborted atomic.Bool

	mu     sync.Mutex
	report *domain.IngestReport
	seen   map[string]bool
}

// paginate walks the catalog from cursor. A page's cursor is saved only
// after every entry of that page finished.
func (r *sourceRun) paginate(ctx context.Context, cursor domain.IngestionCursor, maxPages int, items chan<- pageItem) error {
	fetcher := r.src.Fetcher
	sourceID := r.src.Config.ID

	for pages := 0; maxPages <= 0 || pages < maxPages; pages++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := fetcher.ListCatalog(ctx, cursor.Token)
		if err != nil {
			return fmt.Errorf("list catalog at page %d: %w", cursor.Pages+1, err)
		}
		if !page.Done && len(page.Entries) > 0 && page.NextCursor == cursor.Token {
			return fmt.Errorf("%w: source %s returned cursor %q again", domain.ErrCursorStalled, sourceID, cursor.Token)
		}

		logger.Debug("Source %s page %d: %d entries", sourceID, cursor.Pages+1, len(page.Entries))

		var pageWG sync.WaitGroup
		for _, entry := range page.Entries {
			if !r.firstSighting(entry.CatalogID) {
				continue
			}
			if entry.SourceID == "" {
				entry.SourceID = sourceID
			}
			if entry.Kind == "" {
				entry.Kind = fetcher.Kind()
			}
			if entry.Cursor == "" {
				entry.Cursor = cursor.Token
			}

			pageWG.Add(1)
			select {
			case items <- pageItem{entry: entry, done: pageWG.Done}:
			case <-ctx.Done():
				pageWG.Done()
				return ctx.Err()
			}
		}

		if err := waitGroup(ctx, &pageWG); err != nil {
			return err
		}
		if r.aborted.Load() {
			// The worker that aborted reports the error.
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cursor.Token = page.NextCursor
		cursor.Fetched += len(page.Entries)
		cursor.Pages++
		cursor.Done = page.Done || len(page.Entries) == 0
		cursor.LastSuccess = time.Now()
		if err := r.coordinator.cursorStore.Save(ctx, cursor); err != nil {
			return fmt.Errorf("save cursor: %w", err)
		}

		r.mu.Lock()
		r.report.Pages++
		r.mu.Unlock()

		if cursor.Done {
			return nil
		}
	}
	return nil
}

// firstSighting reports whether a catalog ID is seen for the first time in
// this run, counting duplicates otherwise.
func (r *sourceRun) firstSighting(catalogID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[catalogID] {
		r.report.Duplicates++
		return false
	}
	r.seen[catalogID] = true
	return true
}

// work processes entries until items is closed. A fatal error marks the
// run aborted before the item is released, so its page is never committed.
func (r *sourceRun) work(ctx context.Context, items <-chan pageItem, chunks chan<- domain.Chunk) error {
	for item := range items {
		if ctx.Err() != nil {
			item.done()
			continue
		}
		if err := r.process(ctx, item.entry, chunks); err != nil {
			r.aborted.Store(true)
			item.done()
			return err
		}
		item.done()
	}
	return nil
}

// process runs one entry through fetch, extract, chunk and store.
// Item-level failures are recorded and return nil; store failures and
// cancellation are returned.
//
//nolint:gocyclo // Sequential pipeline stages with per-stage failure handling
func (r *sourceRun) process(ctx context.Context, entry domain.CatalogEntry, chunks chan<- domain.Chunk) error {
	c := r.coordinator

	raw, err := r.src.Fetcher.FetchItem(ctx, entry)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return r.fail(ctx, entry, domain.StageFetch, err)
	}

	doc := buildDocument(entry)
	if len(raw.Content) == 0 && doc.MetadataString("abstract") != "" {
		logger.Debug("No payload for %s, indexing abstract only", entry.CatalogID)
	} else {
		extraction, err := c.extractors.Extract(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return r.fail(ctx, entry, domain.StageExtract, err)
		}
		doc.Text = extraction.Text
		doc.Sections = extraction.Sections
		if doc.Title == "" {
			doc.Title = extraction.Title
		}
	}
	if raw.URL != "" {
		doc.URL = raw.URL
	}

	hashed := doc.Text
	if hashed == "" {
		hashed = doc.MetadataString("abstract")
	}
	doc.ContentHash = ids.ContentHash(hashed)

	unchanged, err := r.unchanged(ctx, doc)
	if err != nil {
		return err
	}
	if unchanged {
		r.mu.Lock()
		r.report.Unchanged++
		r.mu.Unlock()
		return nil
	}

	docChunks, err := c.pipeline.Chunk(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return r.fail(ctx, entry, domain.StageChunk, err)
	}
	if len(docChunks) == 0 {
		return r.fail(ctx, entry, domain.StageChunk, errors.New("document produced no chunks"))
	}

	if err := c.docStore.ReplaceDocument(ctx, doc, docChunks); err != nil {
		return fmt.Errorf("store document %s: %w", entry.CatalogID, err)
	}

	r.mu.Lock()
	r.report.Documents++
	r.report.Chunks += len(docChunks)
	r.mu.Unlock()

	if chunks == nil {
		return nil
	}
	for _, chunk := range docChunks {
		select {
		case chunks <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// unchanged reports whether the stored document has the same content hash
// and a stored chunk set.
func (r *sourceRun) unchanged(ctx context.Context, doc *domain.LegalDocument) (bool, error) {
	store := r.coordinator.docStore

	existing, err := store.FindDocument(ctx, doc.Origin, doc.ExternalID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("find document %s: %w", doc.ExternalID, err)
	case existing.ContentHash != doc.ContentHash:
		return false, nil
	}

	stored, err := store.GetChunks(ctx, existing.ID)
	if err != nil {
		return false, fmt.Errorf("get chunks of %s: %w", doc.ExternalID, err)
	}
	return len(stored) > 0, nil
}

// fail records an item failure and lets the run continue.
func (r *sourceRun) fail(ctx context.Context, entry domain.CatalogEntry, stage domain.FailureStage, cause error) error {
	failure := domain.ItemFailure{
		SourceID:  r.src.Config.ID,
		CatalogID: entry.CatalogID,
		Stage:     stage,
		Reason:    cause.Error(),
		At:        time.Now(),
	}
	logger.Warn("Skipping %s (%s): %v", entry.CatalogID, stage, cause)

	r.mu.Lock()
	r.report.Failures = append(r.report.Failures, failure)
	r.mu.Unlock()

	if err := r.coordinator.failureStore.Record(ctx, failure); err != nil {
		return fmt.Errorf("record failure for %s: %w", entry.CatalogID, err)
	}
	return nil
}

// consumeChunks batches stored chunks and hands them to the indexer.
// Batches the indexer gives up on stay pending and are recorded.
func (r *sourceRun) consumeChunks(ctx context.Context, chunks <-chan domain.Chunk, size int) error {
	batch := make([]domain.Chunk, 0, size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := r.coordinator.indexer.EmbedAndStore(ctx, batch)
		if res != nil {
			r.recordIndexReport(ctx, res)
		}
		batch = batch[:0]
		if err != nil {
			return fmt.Errorf("index chunks: %w", err)
		}
		return nil
	}

	for chunk := range chunks {
		batch = append(batch, chunk)
		if len(batch) >= size {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return flush()
}

func (r *sourceRun) recordIndexReport(ctx context.Context, res *domain.IndexReport) {
	r.mu.Lock()
	r.report.Embedded += res.Embedded
	r.mu.Unlock()

	for _, failed := range res.Failed {
		if len(failed.ChunkIDs) == 0 {
			continue
		}
		failure := domain.ItemFailure{
			SourceID:  r.src.Config.ID,
			CatalogID: failed.ChunkIDs[0],
			Stage:     domain.StageEmbed,
			Reason:    fmt.Sprintf("%d chunks left pending: %s", len(failed.ChunkIDs), failed.Reason),
			At:        time.Now(),
		}
		r.mu.Lock()
		r.report.Failures = append(r.report.Failures, failure)
		r.mu.Unlock()
		if err := r.coordinator.failureStore.Record(context.WithoutCancel(ctx), failure); err != nil {
			logger.Warn("Failed to record embedding failure: %v", err)
		}
	}
}

// buildDocument maps a catalog entry to a document skeleton. Text and
// sections are filled in by extraction.
func buildDocument(entry domain.CatalogEntry) *domain.LegalDocument {
	meta := make(map[string]any, len(entry.Metadata))
	for k, v := range entry.Metadata {
		if v != "" {
			meta[k] = v
		}
	}

	doc := &domain.LegalDocument{
		ID:           ids.Document(entry.SourceID, entry.CatalogID),
		Origin:       entry.SourceID,
		ExternalID:   entry.CatalogID,
		Kind:         entry.Kind,
		Title:        entry.Title,
		Reference:    entry.Metadata["reference"],
		Jurisdiction: entry.Metadata["jurisdiction"],
		LegalDomain:  domain.LegalDomain(entry.Metadata["legal_domain"]),
		Language:     entry.Metadata["language"],
		PublishedAt:  parseDate(entry.Metadata["date"]),
		URL:          entry.URL,
		Metadata:     meta,
	}
	if doc.Reference == "" {
		doc.Reference = entry.Title
	}
	return doc
}

// parseDate accepts the date forms the catalogs use. Unknown forms give
// the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t
		}
	}
	return time.Time{}
}

// waitGroup waits for wg or ctx, whichever comes first.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
