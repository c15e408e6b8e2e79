package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/custodia-labs/lexgate/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Default HNSW parameters.
const (
	DefaultHNSWM              = 16
	DefaultHNSWEfConstruction = 200
	DefaultHNSWEfSearch       = 100
)

const embeddingIndex = "idx_legal_chunks_embedding"

// Config configures the Postgres store.
type Config struct {
	// DSN is a lib/pq connection string or URL.
	DSN string

	// Dimensions sizes the embedding column. Required.
	Dimensions int

	// HNSWM and HNSWEfConstruction tune index builds.
	HNSWM              int
	HNSWEfConstruction int

	// HNSWEfSearch is the candidate list size used at query time.
	HNSWEfSearch int
}

func (c *Config) applyDefaults() {
	if c.HNSWM <= 0 {
		c.HNSWM = DefaultHNSWM
	}
	if c.HNSWEfConstruction <= 0 {
		c.HNSWEfConstruction = DefaultHNSWEfConstruction
	}
	if c.HNSWEfSearch <= 0 {
		c.HNSWEfSearch = DefaultHNSWEfSearch
	}
}

// Store provides access to all store interfaces over one connection pool.
type Store struct {
	db  *sql.DB
	cfg Config
}

// Open connects, runs pending migrations and ensures the vector index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions are required", domain.ErrInvalidInput)
	}
	cfg.applyDefaults()

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.checkDimensions(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, indexDDL(cfg, true)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector index: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// CursorStore returns a CursorStore interface backed by this store.
func (s *Store) CursorStore() driven.CursorStore {
	return &cursorStore{store: s}
}

// FailureStore returns a FailureStore interface backed by this store.
func (s *Store) FailureStore() driven.FailureStore {
	return &failureStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate applies each NNN_name.up.sql newer than the recorded version.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, renderMigration(string(content), s.cfg.Dimensions)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

// checkDimensions fails when an existing embedding column has another size.
// Vectors are never truncated or padded to fit.
func (s *Store) checkDimensions(ctx context.Context) error {
	var typmod int
	err := s.db.QueryRowContext(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'legal_chunks'::regclass AND attname = 'embedding'
	`).Scan(&typmod)
	if err != nil {
		return fmt.Errorf("reading embedding column: %w", err)
	}
	if typmod > 0 && typmod != s.cfg.Dimensions {
		return fmt.Errorf("%w: store has vector(%d), provider produces %d",
			domain.ErrDimensionMismatch, typmod, s.cfg.Dimensions)
	}
	return nil
}

// renderMigration substitutes the embedding size into a migration.
func renderMigration(sqlText string, dimensions int) string {
	return strings.ReplaceAll(sqlText, "{{dimensions}}", strconv.Itoa(dimensions))
}

// indexDDL returns the HNSW index statement for cfg.
func indexDDL(cfg Config, ifNotExists bool) string {
	clause := ""
	if ifNotExists {
		clause = "IF NOT EXISTS "
	}
	return fmt.Sprintf(
		"CREATE INDEX %s%s ON legal_chunks USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)",
		clause, embeddingIndex, cfg.HNSWM, cfg.HNSWEfConstruction)
}

// writeError wraps a failed write so callers can match domain.StoreWriteError.
func writeError(op string, err error) error {
	return &domain.StoreWriteError{Op: op, Err: err}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
