// Package domain defines the core entities of the lexgate pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CatalogEntry: A harvestable unit listed by a remote source
//   - RawItem: Opaque bytes fetched for a catalog entry
//   - LegalDocument: An extracted statute or court decision
//   - Chunk: A bounded, citable slice of a document
//   - EvidenceBundle: Ranked chunks passing the similarity threshold
//   - IngestionCursor: Per-source pagination state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
