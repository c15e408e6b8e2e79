// Package documents provides the documents list view component for the TUI.
package documents

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

// ActionOption represents a document action.
type ActionOption int

const (
	ActionShowContent ActionOption = iota
	ActionShowDetails
	ActionOpenSource
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	actions         driving.EvidenceActions
	ctx             context.Context

	source       *driving.SourceInfo
	documents    []domain.LegalDocument
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int

	// filter narrows the list to documents whose reference, title,
	// jurisdiction or legal domain contains it, case-insensitively.
	filter    string
	filtering bool
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService, actions driving.EvidenceActions) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		actions:         actions,
		ctx:             context.Background(),
		documents:       []domain.LegalDocument{},
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSource sets the source and loads its documents.
func (v *View) SetSource(source driving.SourceInfo) tea.Cmd {
	v.source = &source
	v.documents = []domain.LegalDocument{}
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	v.showingMenu = false
	v.filter = ""
	v.filtering = false
	v.loading = true
	return v.loadDocuments()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadDocuments returns a command that loads documents for the source.
func (v *View) loadDocuments() tea.Cmd {
	if v.source == nil || v.documentService == nil {
		return func() tea.Msg {
			return messages.DocumentsLoaded{Err: fmt.Errorf("document service not available")}
		}
	}
	id := v.source.ID
	return func() tea.Msg {
		docs, err := v.documentService.ListByOrigin(v.ctx, id)
		return messages.DocumentsLoaded{SourceID: id, Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		if v.filtering {
			return v.handleFilterKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.documents = msg.Documents
			v.err = nil
			v.selected = min(v.selected, max(len(v.visible())-1, 0))
			v.adjustScroll()
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.visible())-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.visible()) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowContent
		}
	case "/":
		v.filtering = true
	case "esc":
		if v.filter != "" {
			v.setFilter("")
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSourceDetail}
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	}

	return v, nil
}

// handleFilterKeyMsg edits the filter. Enter keeps it, esc drops it.
func (v *View) handleFilterKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.filtering = false
	case tea.KeyEsc:
		v.filtering = false
		v.setFilter("")
	case tea.KeyBackspace:
		if r := []rune(v.filter); len(r) > 0 {
			v.setFilter(string(r[:len(r)-1]))
		}
	case tea.KeySpace:
		v.setFilter(v.filter + " ")
	case tea.KeyRunes:
		v.setFilter(v.filter + string(msg.Runes))
	}
	return v, nil
}

func (v *View) setFilter(f string) {
	v.filter = f
	v.selected = 0
	v.scrollOffset = 0
}

// visible returns the documents matching the current filter.
func (v *View) visible() []domain.LegalDocument {
	needle := strings.ToLower(strings.TrimSpace(v.filter))
	if needle == "" {
		return v.documents
	}
	var out []domain.LegalDocument
	for _, doc := range v.documents {
		hay := strings.ToLower(strings.Join([]string{
			doc.Reference, doc.Title, doc.ExternalID, doc.Jurisdiction, string(doc.LegalDomain),
		}, " "))
		if strings.Contains(hay, needle) {
			out = append(out, doc)
		}
	}
	return out
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowContent {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleMenuSelect handles selection of an action.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	docs := v.visible()
	if v.selected >= len(docs) {
		return v, nil
	}

	doc := docs[v.selected]

	switch v.menuSelected {
	case ActionShowContent:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc}
		}
	case ActionShowDetails:
		return v, v.loadDocDetails(doc.ID)
	case ActionOpenSource:
		return v, v.openSource(&doc)
	case ActionCancel:
	}

	return v, nil
}

// loadDocDetails returns a command that loads document details.
func (v *View) loadDocDetails(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("document service not available")}
		}

		details, err := v.documentService.GetDetails(v.ctx, docID)
		return messages.DocumentDetailsLoaded{DocumentID: docID, Details: details, Err: err}
	}
}

// openSource returns a command that opens the document at its publisher.
func (v *View) openSource(doc *domain.LegalDocument) tea.Cmd {
	item := &domain.ScoredChunk{
		Chunk:         domain.Chunk{DocumentID: doc.ID, Citation: doc.Reference, URL: doc.URL},
		DocumentTitle: doc.Title,
	}
	return func() tea.Msg {
		if v.actions == nil {
			return messages.ActionCompleted{Action: "open", Err: fmt.Errorf("open not available")}
		}
		return messages.ActionCompleted{Action: "open", Err: v.actions.OpenSource(item)}
	}
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, separator, help, and padding
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	sourceName := "Unknown"
	if v.source != nil {
		sourceName = v.source.ID
	}
	docs := v.visible()
	if v.filter != "" {
		b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents - %s (%d of %d)", sourceName, len(docs), len(v.documents))))
	} else {
		b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents - %s (%d)", sourceName, len(v.documents))))
	}
	b.WriteString("\n")
	if v.filtering || v.filter != "" {
		cursor := ""
		if v.filtering {
			cursor = "_"
		}
		b.WriteString(v.styles.Muted.Render("Filter: " + v.filter + cursor))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
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

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents ingested for this source."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(docs) == 0 {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("No documents match %q.", v.filter)))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.showingMenu {
		b.WriteString(v.renderActionMenu(docs))
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(docs) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &docs[i]))
		b.WriteString("\n")
	}

	if len(docs) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(docs)),
			len(docs))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderDocument renders a single document line: reference, jurisdiction
// and legal domain, then title.
func (v *View) renderDocument(index int, doc *domain.LegalDocument) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	ref := doc.Reference
	if ref == "" {
		ref = doc.ExternalID
	}
	ref = truncate(ref, 24)

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	maxTitleLen := max(v.width-50, 10)
	title = truncate(title, maxTitleLen)

	area := truncate(string(doc.LegalDomain), 12)
	meta := fmt.Sprintf("%-3s %-12s", doc.Jurisdiction, area)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-24s  %s  %s", indicator, ref, meta, title))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Citation.Render(fmt.Sprintf("%-24s  ", ref)) +
		v.styles.Muted.Render(meta+"  ") +
		v.styles.Normal.Render(title)
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu(docs []domain.LegalDocument) string {
	var b strings.Builder

	if v.selected < len(docs) {
		doc := docs[v.selected]
		title := doc.Title
		if title == "" {
			title = doc.ID
		}
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", title)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowContent, "Show Chunks"},
		{ActionShowDetails, "Show Details"},
		{ActionOpenSource, "Open Source"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.filtering {
		return v.styles.Help.Render("[enter] apply filter  [esc] clear")
	}
	return v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [/] filter  [r] reload  [esc] back")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.LegalDocument {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.LegalDocument {
	if docs := v.visible(); v.selected < len(docs) {
		return &docs[v.selected]
	}
	return nil
}

// Filter returns the active filter text.
func (v *View) Filter() string {
	return v.filter
}

// IsFiltering returns true while the filter is being edited.
func (v *View) IsFiltering() bool {
	return v.filtering
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
