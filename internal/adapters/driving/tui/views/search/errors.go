package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoRetriever indicates that no retriever was provided.
	ErrNoRetriever = errors.New("retrieval service is required")

	// ErrNoAnswerer indicates that no answer generator is configured.
	ErrNoAnswerer = errors.New("answer generator not configured")
)
