// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// RetrieveCompleted carries a retrieval back to the model.
type RetrieveCompleted struct {
	Query     string
	Retrieval *domain.Retrieval
	Err       error
}

// AnswerCompleted carries a gated answer back to the model.
type AnswerCompleted struct {
	Query  string
	Answer *domain.Answer
	Err    error
}

// ActionCompleted reports the outcome of a copy or open action.
type ActionCompleted struct {
	Action string
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and evidence view.
	ViewSearch
	// ViewSources lists the configured sources.
	ViewSources
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewSourceDetail shows status, failures and runs of a source.
	ViewSourceDetail
	// ViewDocuments lists documents for a source.
	ViewDocuments
	// ViewDocContent shows the chunks of a document.
	ViewDocContent
	// ViewDocDetails shows document metadata.
	ViewDocDetails
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewSources:
		return "sources"
	case ViewHelp:
		return "help"
	case ViewSourceDetail:
		return "source_detail"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewDocDetails:
		return "doc_details"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SourcesLoaded carries the configured sources and their ingestion state.
type SourcesLoaded struct {
	Sources  []driving.SourceInfo
	Statuses map[string]*driving.IngestStatus
	Err      error
}

// SourceSelected signals a source was selected for detail view.
type SourceSelected struct {
	Source driving.SourceInfo
}

// SourceDetailLoaded carries the status, failures and runs of a source.
type SourceDetailLoaded struct {
	SourceID string
	Status   *driving.IngestStatus
	Failures []domain.ItemFailure
	Runs     []domain.RunRecord
	Err      error
}

// IngestCompleted carries the report of a TUI-launched ingestion.
type IngestCompleted struct {
	SourceID string
	Report   *domain.IngestReport
	Err      error
}

// FailuresCleared signals the failures of a source were discarded.
type FailuresCleared struct {
	SourceID string
	Err      error
}

// DocumentsLoaded carries the list of documents for a source.
type DocumentsLoaded struct {
	SourceID  string
	Documents []domain.LegalDocument
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.LegalDocument
}

// DocumentContentLoaded carries the chunks of a document.
type DocumentContentLoaded struct {
	DocumentID string
	Chunks     []domain.Chunk
	Err        error
}

// DocumentDetailsLoaded carries the metadata of a document.
type DocumentDetailsLoaded struct {
	DocumentID string
	Details    *driving.DocumentDetails
	Err        error
}

// CorpusStatsLoaded carries chunk counts for the menu header.
type CorpusStatsLoaded struct {
	Stats *driving.CorpusStats
	Err   error
}
