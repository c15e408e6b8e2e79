// Package tui provides an interactive terminal user interface for lexgate.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Retriever runs grounded retrieval (required).
	Retriever driving.Retriever

	// Answerer generates cited answers. Nil disables the answer key.
	Answerer driving.Answerer

	// Source lists configured sources and their failures (required).
	Source driving.SourceService

	// Ingest runs and reports ingestion.
	Ingest driving.IngestionCoordinator

	// Document exposes stored documents and chunks.
	Document driving.DocumentService

	// Actions copies citations and opens source URLs.
	Actions driving.EvidenceActions
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(retriever driving.Retriever, source driving.SourceService) *Ports {
	return &Ports{
		Retriever: retriever,
		Source:    source,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	if p.Source == nil {
		return ErrMissingSourceService
	}
	return nil
}
