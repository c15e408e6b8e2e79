package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/sourcedetail"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/views/sources"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView         *menu.View
	searchView       *search.View
	sourcesView      *sources.View
	sourceDetailView *sourcedetail.View
	documentsView    *documents.View
	docContentView   *doccontent.View
	docDetailsView   *docdetails.View

	// selectedSource tracks the source being browsed.
	selectedSource *driving.SourceInfo

	// selectedDocument tracks the document being read.
	selectedDocument *domain.LegalDocument

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:            ports,
		ctx:              context.Background(),
		styles:           s,
		menuView:         menu.NewView(s, ports.Document),
		searchView:       search.NewView(s, km, ports.Retriever, ports.Answerer, ports.Actions),
		sourcesView:      sources.NewView(s, ports.Source, ports.Ingest),
		sourceDetailView: sourcedetail.NewView(s, ports.Source, ports.Ingest),
		documentsView:    documents.NewView(s, ports.Document, ports.Actions),
		docContentView:   doccontent.NewView(s, ports.Document),
		docDetailsView:   docdetails.NewView(s),
		currentView:      messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and every view that calls services.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.menuView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	a.sourcesView.WithContext(ctx)
	a.sourceDetailView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("lexgate - Swiss Legal Retrieval"),
		a.menuView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKeyMsg(msg)

	case messages.RetrieveCompleted, messages.AnswerCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ActionCompleted:
		a.err = msg.Err
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewSources:
			return a, a.sourcesView.Init()
		case messages.ViewSourceDetail:
			return a, a.sourceDetailView.Init()
		case messages.ViewMenu:
			return a, a.menuView.Init()
		case messages.ViewHelp,
			messages.ViewDocuments, messages.ViewDocContent, messages.ViewDocDetails:
		}
		return a, nil

	case messages.SourceSelected:
		a.selectedSource = &msg.Source
		// "View documents" in the detail view re-emits the selection.
		if a.currentView == messages.ViewSourceDetail {
			a.currentView = messages.ViewDocuments
			return a, a.documentsView.SetSource(msg.Source)
		}
		a.sourceDetailView.SetSource(msg.Source)
		a.currentView = messages.ViewSourceDetail
		return a, a.sourceDetailView.Init()

	case messages.CorpusStatsLoaded:
		a.menuView, cmd = a.menuView.Update(msg)
		return a, cmd

	case messages.SourcesLoaded:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		return a, cmd

	case messages.SourceDetailLoaded, messages.FailuresCleared:
		a.sourceDetailView, cmd = a.sourceDetailView.Update(msg)
		return a, cmd

	case messages.IngestCompleted:
		// Runs outlive navigation; both source views track them.
		var detailCmd tea.Cmd
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		a.sourceDetailView, detailCmd = a.sourceDetailView.Update(msg)
		return a, tea.Batch(cmd, detailCmd)

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.selectedDocument = &msg.Document
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(&msg.Document)

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.DocumentDetailsLoaded:
		a.err = msg.Err
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
		a.currentView = messages.ViewDocDetails
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// handleKeyMsg routes key presses to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.currentView {
	case messages.ViewSources, messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
			return a, a.menuView.Init()
		}
	case messages.ViewMenu, messages.ViewSearch, messages.ViewSourceDetail,
		messages.ViewDocuments, messages.ViewDocContent, messages.ViewDocDetails:
	}
	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewSourceDetail:
		a.sourceDetailView, cmd = a.sourceDetailView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewSourceDetail:
		return a.sourceDetailView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Ask:
  (type)      Enter a legal question
  enter       Retrieve evidence
  esc         Back to Menu

Evidence:
  j/k, ↑/↓    Navigate passages
  enter       Actions on passage
  c           Copy citation
  o           Open source
  a           Generate cited answer
  n           New query

Sources:
  enter       Source details
  i           Ingest now
  r           Reload

Documents:
  /           Filter by reference, title, canton or area
  enter       Chunks, details or open source

Only passages above the relevance threshold are shown. When none
qualify, no answer is generated.

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Retrieval returns the last retrieval result.
func (a *App) Retrieval() *domain.Retrieval {
	return a.searchView.Retrieval()
}

// Evidence returns the passages of the last grounded retrieval.
func (a *App) Evidence() []domain.ScoredChunk {
	return a.searchView.Evidence()
}

// SelectedSource returns the source being browsed.
func (a *App) SelectedSource() *driving.SourceInfo {
	return a.selectedSource
}

// SelectedDocument returns the document being read.
func (a *App) SelectedDocument() *domain.LegalDocument {
	return a.selectedDocument
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
	a.sourceDetailView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
}
