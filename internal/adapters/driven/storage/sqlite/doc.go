// Package sqlite provides a unified SQLite-based implementation of the lexgate
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: legal documents and their chunk sets
//   - VectorStore: chunk embeddings with exact cosine search
//   - CursorStore: per-source pagination state
//   - FailureStore: skipped items kept for manual review
//   - RunStore: bounded ingestion run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Vector Search
//
// SQLite has no vector index. Search scans every embedded chunk matching the
// filter and ranks by cosine similarity in Go, which is exact and adequate for
// a local corpus. Use the postgres adapter for approximate search at scale.
//
// # Data Location
//
// By default, the database is stored at ~/.lexgate/data/lexgate.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
