// Package sourcedetail provides the source detail view component for the TUI.
package sourcedetail

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

const (
	// maxListed bounds the failures and runs shown.
	maxListed  = 5
	timeLayout = "2006-01-02 15:04"
)

// MenuOption represents an action in the source detail menu.
type MenuOption int

const (
	OptionViewDocuments MenuOption = iota
	OptionIngestNow
	OptionClearFailures
	OptionBack
)

// View is the source detail view.
type View struct {
	styles        *styles.Styles
	sourceService driving.SourceService
	ingest        driving.IngestionCoordinator
	ctx           context.Context

	source    *driving.SourceInfo
	status    *driving.IngestStatus
	failures  []domain.ItemFailure
	runs      []domain.RunRecord
	notice    string
	selected  MenuOption
	width     int
	height    int
	ready     bool
	err       error
	ingesting bool
}

// NewView creates a new source detail view.
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
		selected:      OptionViewDocuments,
		width:         80,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSource sets the source to display details for.
func (v *View) SetSource(source driving.SourceInfo) {
	v.source = &source
	v.status = nil
	v.failures = nil
	v.runs = nil
	v.notice = ""
	v.err = nil
	v.ingesting = false
	v.selected = OptionViewDocuments
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.loadDetail()
}

// loadDetail returns a command that loads status, failures and runs.
func (v *View) loadDetail() tea.Cmd {
	if v.source == nil {
		return nil
	}
	id := v.source.ID
	return func() tea.Msg {
		msg := messages.SourceDetailLoaded{SourceID: id}
		if v.ingest != nil {
			st, err := v.ingest.Status(v.ctx, id)
			if err != nil {
				msg.Err = err
				return msg
			}
			msg.Status = st
		}
		if v.sourceService != nil {
			failures, err := v.sourceService.Failures(v.ctx, id)
			if err != nil {
				msg.Err = err
				return msg
			}
			runs, err := v.sourceService.History(v.ctx, id, maxListed)
			if err != nil {
				msg.Err = err
				return msg
			}
			msg.Failures = failures
			msg.Runs = runs
		}
		return msg
	}
}

// Update handles messages for the source detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SourceDetailLoaded:
		if v.source == nil || msg.SourceID != v.source.ID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.status = msg.Status
		v.failures = msg.Failures
		v.runs = msg.Runs
		return v, nil

	case messages.IngestCompleted:
		if v.source == nil || msg.SourceID != v.source.ID {
			return v, nil
		}
		v.ingesting = false
		if msg.Err != nil {
			v.err = msg.Err
		} else if msg.Report != nil {
			v.notice = fmt.Sprintf("Ingested %d documents, %d chunks, %d failures",
				msg.Report.Documents, msg.Report.Chunks, len(msg.Report.Failures))
		}
		return v, v.loadDetail()

	case messages.FailuresCleared:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Failures cleared"
		return v, v.loadDetail()

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.ingesting = false
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > OptionViewDocuments {
			v.selected--
		}
	case "down", "j":
		if v.selected < OptionBack {
			v.selected++
		}
	case "enter":
		return v.handleSelect()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSources}
		}
	}

	return v, nil
}

// handleSelect handles selection of a menu option.
func (v *View) handleSelect() (*View, tea.Cmd) {
	switch v.selected {
	case OptionViewDocuments:
		if v.source != nil {
			source := *v.source
			return v, func() tea.Msg {
				return messages.SourceSelected{Source: source}
			}
		}
	case OptionIngestNow:
		return v, v.ingestSource()
	case OptionClearFailures:
		return v, v.clearFailures()
	case OptionBack:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSources}
		}
	}
	return v, nil
}

// ingestSource returns a command that ingests the source.
func (v *View) ingestSource() tea.Cmd {
	if v.source == nil || v.ingesting {
		return nil
	}
	if v.ingest == nil {
		return func() tea.Msg {
			return messages.ErrorOccurred{Err: fmt.Errorf("ingestion not available")}
		}
	}
	v.ingesting = true
	id := v.source.ID
	return func() tea.Msg {
		report, err := v.ingest.Ingest(v.ctx, id, driving.IngestOptions{Trigger: domain.TriggerManual})
		return messages.IngestCompleted{SourceID: id, Report: report, Err: err}
	}
}

// clearFailures returns a command that discards the recorded failures.
func (v *View) clearFailures() tea.Cmd {
	if v.source == nil {
		return nil
	}
	id := v.source.ID
	return func() tea.Msg {
		if v.sourceService == nil {
			return messages.FailuresCleared{SourceID: id, Err: fmt.Errorf("source service not available")}
		}
		return messages.FailuresCleared{SourceID: id, Err: v.sourceService.ClearFailures(v.ctx, id)}
	}
}

// View renders the source detail view.
func (v *View) View() string {
	if v.source == nil {
		return v.styles.Muted.Render("No source selected")
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Source: %s", v.source.ID)))
	b.WriteString("\n\n")

	v.field(&b, "Type: ", v.source.Type)
	v.field(&b, "Kind: ", string(v.source.Kind))
	v.field(&b, "Workers: ", fmt.Sprintf("%d", v.source.Workers))
	if v.source.Schedule != "" {
		v.field(&b, "Schedule: ", v.source.Schedule)
	}
	v.renderStatus(&b)
	b.WriteString("\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}
	if v.ingesting {
		b.WriteString(v.styles.Muted.Render("Ingesting..."))
		b.WriteString("\n\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	v.renderFailures(&b)
	v.renderRuns(&b)

	b.WriteString(strings.Repeat("─", max(0, min(40, v.width-4))))
	b.WriteString("\n\n")

	options := []struct {
		option MenuOption
		label  string
	}{
		{OptionViewDocuments, "View Documents"},
		{OptionIngestNow, "Ingest Now"},
		{OptionClearFailures, "Clear Failures"},
		{OptionBack, "Back"},
	}

	for _, opt := range options {
		if v.selected == opt.option {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) field(b *strings.Builder, label, value string) {
	b.WriteString(v.styles.Subtitle.Render(label))
	b.WriteString(v.styles.Normal.Render(value))
	b.WriteString("\n")
}

func (v *View) renderStatus(b *strings.Builder) {
	st := v.status
	if st == nil || st.Cursor == nil {
		v.field(b, "Progress: ", "never ingested")
		return
	}
	progress := fmt.Sprintf("%d pages, %d items", st.Cursor.Pages, st.Cursor.Fetched)
	if st.Cursor.Done {
		progress += " (catalog exhausted)"
	}
	v.field(b, "Progress: ", progress)
	if !st.Cursor.LastSuccess.IsZero() {
		v.field(b, "Last page: ", st.Cursor.LastSuccess.Local().Format(timeLayout))
	}
	if st.Running {
		v.field(b, "State: ", "running")
	}
}

func (v *View) renderFailures(b *strings.Builder) {
	if len(v.failures) == 0 {
		return
	}
	b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Failures (%d)", len(v.failures))))
	b.WriteString("\n")
	for i := range v.failures {
		if i == maxListed {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(v.failures)-maxListed)))
			b.WriteString("\n")
			break
		}
		f := &v.failures[i]
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %s [%s] %s", f.CatalogID, f.Stage, f.Reason)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (v *View) renderRuns(b *strings.Builder) {
	if len(v.runs) == 0 {
		return
	}
	b.WriteString(v.styles.Subtitle.Render("Recent runs"))
	b.WriteString("\n")
	for i := range v.runs {
		r := &v.runs[i]
		outcome := v.styles.Success.Render("ok")
		if !r.Success {
			outcome = v.styles.Error.Render("failed")
		}
		b.WriteString(fmt.Sprintf("  %s  %-8s %s  %d documents\n",
			r.StartedAt.Local().Format(timeLayout), r.Trigger, outcome, r.Documents))
	}
	b.WriteString("\n")
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Source returns the current source.
func (v *View) Source() *driving.SourceInfo {
	return v.source
}

// Status returns the loaded ingestion status.
func (v *View) Status() *driving.IngestStatus {
	return v.status
}

// Failures returns the loaded failures.
func (v *View) Failures() []domain.ItemFailure {
	return v.failures
}

// SelectedOption returns the currently selected menu option.
func (v *View) SelectedOption() MenuOption {
	return v.selected
}

// Notice returns the last action notice.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
