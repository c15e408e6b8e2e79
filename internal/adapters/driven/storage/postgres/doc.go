// Package postgres implements the lexgate storage ports on PostgreSQL with
// the pgvector extension.
//
// Chunk embeddings live in a vector(D) column sized from the embedding
// provider. Similarity search orders by cosine distance (<=>) and is served
// by an HNSW index built with vector_cosine_ops. The index is created on
// first open and rebuilt by RebuildIndex after bulk loads.
package postgres
