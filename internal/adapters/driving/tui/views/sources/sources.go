// Package sources provides the sources view component for the TUI.
package sources

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// View lists the configured catalog sources with their ingestion state.
type View struct {
	styles        *styles.Styles
	sourceService driving.SourceService
	ingest        driving.IngestionCoordinator
	ctx           context.Context

	sources   []driving.SourceInfo
	statuses  map[string]*driving.IngestStatus
	ingesting map[string]bool
	notice    string
	selected  int
	width     int
	height    int
	ready     bool
	err       error
	loading   bool
}

// NewView creates a new sources view.
func NewView(
	s *styles.Styles,
	sourceService driving.SourceService,
	ingest driving.IngestionCoordinator,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		sourceService: sourceService,
		ingest:        ingest,
		ctx:           context.Background(),
		statuses:      make(map[string]*driving.IngestStatus),
		ingesting:     make(map[string]bool),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads sources.
func (v *View) Init() tea.Cmd {
	return v.loadSources()
}

// loadSources returns a command that loads sources and their status.
func (v *View) loadSources() tea.Cmd {
	return func() tea.Msg {
		if v.sourceService == nil {
			return messages.SourcesLoaded{Err: fmt.Errorf("source service not available")}
		}

		sources := v.sourceService.List()
		statuses := make(map[string]*driving.IngestStatus, len(sources))
		if v.ingest != nil {
			for _, src := range sources {
				// Best effort; a source without status renders as never ingested.
				if st, err := v.ingest.Status(v.ctx, src.ID); err == nil {
					statuses[src.ID] = st
				}
			}
		}
		return messages.SourcesLoaded{Sources: sources, Statuses: statuses}
	}
}

// startIngest returns a command that ingests one source.
func (v *View) startIngest(sourceID string) tea.Cmd {
	return func() tea.Msg {
		if v.ingest == nil {
			return messages.IngestCompleted{SourceID: sourceID, Err: fmt.Errorf("ingestion service not available")}
		}
		report, err := v.ingest.Ingest(v.ctx, sourceID, driving.IngestOptions{Trigger: domain.TriggerManual})
		return messages.IngestCompleted{SourceID: sourceID, Report: report, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SourcesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.sources = msg.Sources
		v.statuses = msg.Statuses
		if v.statuses == nil {
			v.statuses = make(map[string]*driving.IngestStatus)
		}
		if v.selected >= len(v.sources) {
			v.selected = 0
		}
		v.err = nil
		return v, nil

	case messages.IngestCompleted:
		delete(v.ingesting, msg.SourceID)
		switch {
		case msg.Err != nil:
			v.notice = fmt.Sprintf("%s: %v", msg.SourceID, msg.Err)
		case msg.Report != nil:
			v.notice = fmt.Sprintf("%s: %d documents, %d chunks, %d failures",
				msg.SourceID, msg.Report.Documents, msg.Report.Chunks, len(msg.Report.Failures))
		}
		return v, v.loadSources()
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.sources)-1 {
			v.selected++
		}
	case "enter":
		if len(v.sources) > 0 && v.selected < len(v.sources) {
			source := v.sources[v.selected]
			return v, func() tea.Msg {
				return messages.SourceSelected{Source: source}
			}
		}
	case "i":
		if len(v.sources) == 0 || v.selected >= len(v.sources) {
			return v, nil
		}
		id := v.sources[v.selected].ID
		if v.ingesting[id] {
			return v, nil
		}
		v.ingesting[id] = true
		v.notice = fmt.Sprintf("Ingesting %s...", id)
		return v, v.startIngest(id)
	case "r":
		v.loading = true
		return v, v.loadSources()
	}

	return v, nil
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.sources) == 0 {
		b.WriteString(v.styles.Muted.Render("No sources configured."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	for i := range v.sources {
		b.WriteString(v.renderSource(i, &v.sources[i]))
		b.WriteString("\n")
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderSource renders a single source line.
func (v *View) renderSource(index int, source *driving.SourceInfo) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	typeStr := fmt.Sprintf("[%s]", source.Type)
	state := v.stateLabel(source.ID)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-18s %-28s %s", indicator, typeStr, source.ID, state))
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-18s ", typeStr)) +
		v.styles.Normal.Render(fmt.Sprintf("%-28s ", source.ID)) +
		v.styles.Muted.Render(state)
}

// stateLabel summarises the ingestion state of a source.
func (v *View) stateLabel(sourceID string) string {
	if v.ingesting[sourceID] {
		return "ingesting..."
	}
	st, ok := v.statuses[sourceID]
	if !ok || st == nil {
		return "unknown"
	}
	if st.Running {
		return "running"
	}
	if st.Cursor == nil {
		return "never ingested"
	}
	label := fmt.Sprintf("%d pages, %d items", st.Cursor.Pages, st.Cursor.Fetched)
	if st.FailureCount > 0 {
		label += fmt.Sprintf(", %d failures", st.FailureCount)
	}
	return label
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] details  [i] ingest  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Sources returns the current list of sources.
func (v *View) Sources() []driving.SourceInfo {
	return v.sources
}

// SelectedIndex returns the currently selected source index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Ingesting reports whether an ingestion of sourceID was started from this view.
func (v *View) Ingesting(sourceID string) bool {
	return v.ingesting[sourceID]
}

// Notice returns the last ingestion notice.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
