package mcp

import (
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever runs the grounding gate.
	Retriever driving.Retriever

	// Answerer generates gated answers. The answer tool is only
	// registered when it is set.
	Answerer driving.Answerer

	// Source lists configured sources.
	Source driving.SourceService

	// Document exposes stored documents.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
