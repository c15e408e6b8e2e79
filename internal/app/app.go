// Package app wires configuration, storage, AI providers and services
// into the driving adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/lexgate/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexgate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexgate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexgate/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/lexgate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexgate/internal/connectors"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/core/services"
	"github.com/custodia-labs/lexgate/internal/extractors"
	"github.com/custodia-labs/lexgate/internal/logger"
	"github.com/custodia-labs/lexgate/internal/postprocessors"
)

// logFileMaxSizeMB is the rotation size of the log file.
const logFileMaxSizeMB = 20

// stores groups the driven storage ports of one backend.
type stores struct {
	documents driven.DocumentStore
	vectors   driven.VectorStore
	cursors   driven.CursorStore
	failures  driven.FailureStore
	runs      driven.RunStore
}

// App holds the wired services and the resources to release on exit.
type App struct {
	Config   *file.Config
	Services *cli.Services

	closers []func() error
}

// New loads the config at path and builds every service from it.
func New(ctx context.Context, path string) (*App, error) {
	cfg, err := file.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Log.Verbose {
		logger.SetVerbose(true)
	}
	if cfg.Log.File != "" {
		if err := logger.SetFile(cfg.Log.File, logFileMaxSizeMB); err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}

	a := &App{Config: cfg}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	providers := ai.Init(cfg.EmbeddingSettings(), cfg.GeneratorSettings())
	a.closers = append(a.closers, func() error {
		providers.Close()
		return nil
	})
	for _, w := range providers.Warnings {
		logger.Warn("%s", w)
	}
	embedder := providers.EmbeddingService
	generator := providers.Generator

	st, err := a.openStores(ctx, embedder)
	if err != nil {
		return err
	}

	indexer := services.NewIndexer(embedder, st.vectors, services.IndexerConfig{
		BatchSize:   cfg.Embedding.BatchSize,
		MaxAttempts: cfg.Embedding.MaxAttempts,
	})
	retriever := services.NewRetriever(embedder, st.vectors, services.RetrieverConfig{
		TopK:      cfg.Retrieval.TopK,
		Threshold: &cfg.Retrieval.Threshold,
		CacheSize: cfg.Retrieval.CacheSize,
	})

	sourceConfigs := cfg.SourceConfigs()
	sources := make([]services.IngestSource, 0, len(sourceConfigs))
	for _, sc := range sourceConfigs {
		fetcher, err := connectors.NewFetcher(sc, nil)
		if err != nil {
			return fmt.Errorf("source %s: %w", sc.ID, err)
		}
		sources = append(sources, services.IngestSource{Config: sc, Fetcher: fetcher})
	}

	pipeline, err := postprocessors.NewDefaultPipeline(cfg.ChunkerOptions())
	if err != nil {
		return fmt.Errorf("chunk pipeline: %w", err)
	}

	var inline driving.Indexer
	if embedder != nil {
		inline = indexer
	}
	coordinator := services.NewIngestCoordinator(
		sources,
		extractors.NewDefaultRegistry(),
		pipeline,
		st.documents,
		st.cursors,
		st.failures,
		st.runs,
		inline,
	)
	coordinator.SetConcurrency(cfg.Ingest.Concurrency)
	coordinator.SetEmbedBatchSize(cfg.Embedding.BatchSize)

	scheduler, err := services.NewScheduler(sourceConfigs, coordinator, st.runs)
	if err != nil {
		return err
	}
	scheduler.SetHistoryKeep(cfg.Ingest.HistoryKeep)

	svcs := &cli.Services{
		Ingest:    coordinator,
		Indexer:   indexer,
		Retriever: retriever,
		Source:    services.NewSourceService(sources, st.failures, st.runs),
		Document:  services.NewDocumentService(st.documents),
		Scheduler: scheduler,
		Actions:   services.NewEvidenceActions(),
	}

	if generator != nil {
		prompts, err := file.NewPromptStore(filepath.Join(cfg.Dir, "prompts"))
		if err != nil {
			return err
		}
		gate := services.NewAnswerGate(retriever, generator)
		gate.SetPromptStore(prompts)
		svcs.Answerer = gate
	}

	a.Services = svcs
	return nil
}

// openStores opens the backend selected by the store driver.
func (a *App) openStores(ctx context.Context, embedder driven.EmbeddingService) (*stores, error) {
	cfg := a.Config.Store

	switch cfg.Driver {
	case file.DriverMemory:
		docs := memory.NewDocumentStore()
		return &stores{
			documents: docs,
			vectors:   docs,
			cursors:   memory.NewCursorStore(),
			failures:  memory.NewFailureStore(),
			runs:      memory.NewRunStore(),
		}, nil

	case file.DriverPostgres:
		dims := a.Config.Embedding.Dimensions
		if dims == 0 && embedder != nil {
			dims = embedder.Dimensions()
		}
		if dims == 0 {
			return nil, fmt.Errorf("%w: postgres needs [embedding] dimensions or a reachable embedder",
				domain.ErrInvalidInput)
		}
		pg, err := postgres.Open(ctx, postgres.Config{
			DSN:                cfg.DSN,
			Dimensions:         dims,
			HNSWM:              cfg.HNSWM,
			HNSWEfConstruction: cfg.HNSWEfConstruction,
			HNSWEfSearch:       cfg.HNSWEfSearch,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		return &stores{
			documents: pg.DocumentStore(),
			vectors:   pg.VectorStore(),
			cursors:   pg.CursorStore(),
			failures:  pg.FailureStore(),
			runs:      pg.RunStore(),
		}, nil

	default:
		lite, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, lite.Close)
		logger.Debug("sqlite store at %s", lite.Path())
		return &stores{
			documents: lite.DocumentStore(),
			vectors:   lite.VectorStore(),
			cursors:   lite.CursorStore(),
			failures:  lite.FailureStore(),
			runs:      lite.RunStore(),
		}, nil
	}
}

// Close releases stores and provider clients in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	logger.Sync()
	return errors.Join(errs...)
}
