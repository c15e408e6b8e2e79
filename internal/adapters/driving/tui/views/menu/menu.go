// Package menu provides the start screen of the TUI.
package menu

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

// Item is one menu entry.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View is the start screen: navigation plus a summary of the corpus.
type View struct {
	styles    *styles.Styles
	documents driving.DocumentService
	ctx       context.Context

	items    []Item
	selected int
	stats    *driving.CorpusStats
	statsErr error

	width  int
	height int
	ready  bool
}

// NewView creates the menu. documents may be nil, in which case no corpus
// summary is shown.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:    s,
		documents: documents,
		ctx:       context.Background(),
		items: []Item{
			{Label: "Ask", Hint: "retrieve evidence for a legal question", View: messages.ViewSearch},
			{Label: "Sources", Hint: "ingestion state, failures and documents", View: messages.ViewSources},
			{Label: "Help", Hint: "keys and verdicts", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the corpus counts.
func (v *View) Init() tea.Cmd {
	if v.documents == nil {
		return nil
	}
	ctx, documents := v.ctx, v.documents
	return func() tea.Msg {
		stats, err := documents.Stats(ctx)
		return messages.CorpusStatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.CorpusStatsLoaded:
		v.stats, v.statsErr = msg.Stats, msg.Err
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch key := msg.String(); key {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.items)-1 {
			v.selected++
		}
	case "enter":
		return v, v.choose(v.selected)
	case "1", "2", "3":
		return v, v.choose(int(key[0] - '1'))
	case "q":
		return v, tea.Quit
	}
	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	if i < 0 || i >= len(v.items) {
		return nil
	}
	v.selected = i
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("lexgate"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Grounded retrieval over Swiss statutes and decisions"))
	b.WriteString("\n\n")

	if line := v.corpusLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	for i, item := range v.items {
		label := fmt.Sprintf("%-8s", item.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + label))
		}
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [1-3/Enter] Select  [q] Quit"))
	return b.String()
}

func (v *View) corpusLine() string {
	switch {
	case v.statsErr != nil:
		return v.styles.Error.Render("Corpus unavailable: " + v.statsErr.Error())
	case v.stats == nil:
		return ""
	case v.stats.Chunks == 0:
		return v.styles.Warning.Render("Corpus is empty. Run \"lexgate ingest\" to harvest sources.")
	}
	line := fmt.Sprintf("%d chunks, %d embedded", v.stats.Chunks, v.stats.Embedded)
	if pending := v.stats.Pending(); pending > 0 {
		return v.styles.Normal.Render(line+", ") + v.styles.Warning.Render(fmt.Sprintf("%d pending", pending))
	}
	return v.styles.Normal.Render(line)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}

// Stats returns the last loaded corpus counts.
func (v *View) Stats() *driving.CorpusStats {
	return v.stats
}
