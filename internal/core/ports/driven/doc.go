// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion to function:
//
//   - Fetcher: Lists and fetches catalog entries from a remote source
//   - Extractor: Converts raw payloads into text plus structural hints
//   - ExtractorRegistry: Selects the appropriate extractor
//   - ChunkPipeline: Splits and classifies documents into chunks
//   - DocumentStore: Document and chunk persistence
//   - CursorStore: Pagination state persistence
//   - FailureStore: Skipped item persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it, chunks stay pending and retrieval is disabled.
//   - VectorStore: Without it, nothing is indexed or retrieved.
//   - AnswerGenerator: Without it, only the evidence bundle is served.
package driven
