// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// EvidenceList displays the evidence of a retrieval in a navigable list.
type EvidenceList struct {
	items     []domain.ScoredChunk
	selected  int
	styles    *styles.Styles
	width     int
	height    int
	threshold float64
}

// NewEvidenceList creates a new evidence list component.
func NewEvidenceList(s *styles.Styles) *EvidenceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &EvidenceList{
		items:    nil,
		selected: 0,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// SetThreshold sets the relevance threshold scores are coloured against.
func (r *EvidenceList) SetThreshold(t float64) {
	r.threshold = t
}

// Init initialises the evidence list.
func (r *EvidenceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *EvidenceList) Update(msg tea.Msg) (*EvidenceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			r.MoveUp()
		case tea.KeyDown:
			r.MoveDown()
		default:
			// Handle other keys
		}
		switch msg.String() {
		case "k":
			r.MoveUp()
		case "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the evidence list.
func (r *EvidenceList) View() string {
	if len(r.items) == 0 {
		return r.styles.Muted.Render("No evidence")
	}

	lines := make([]string, 0, len(r.items)+2)

	header := r.styles.Subtitle.Render(fmt.Sprintf("Evidence (%d)", len(r.items)))
	lines = append(lines, header, "")

	// Each item takes three lines: citation, title and preview.
	visibleCount := (r.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.items) {
		end = len(r.items)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderItem(i, &r.items[i]))
	}

	return strings.Join(lines, "\n")
}

// renderItem formats a single evidence item with a preview of its text.
func (r *EvidenceList) renderItem(index int, item *domain.ScoredChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	citation := item.Chunk.Citation
	if citation == "" {
		citation = "(uncited)"
	}

	maxCitationLen := r.width - 20
	if maxCitationLen < 10 {
		maxCitationLen = 10
	}
	citation = truncate(citation, maxCitationLen)

	score := fmt.Sprintf("%.2f", item.Score)

	var citationLine string
	if index == r.selected {
		citationLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxCitationLen, citation, score))
	} else {
		citationLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxCitationLen, citation)) +
			r.styles.Score(item.Score, r.threshold).Render(score)
	}

	maxPreviewLen := r.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := truncate(strings.Join(strings.Fields(item.Chunk.Text), " "), maxPreviewLen)
	previewLine := r.styles.Muted.Render("    " + preview)

	var titleLine string
	if item.DocumentTitle != "" {
		titleLine = "\n" + r.styles.Subtitle.Render("    "+truncate(item.DocumentTitle, maxPreviewLen))
	}

	return citationLine + titleLine + "\n" + previewLine
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetItems updates the evidence list.
func (r *EvidenceList) SetItems(items []domain.ScoredChunk) {
	r.items = items
	r.selected = 0
}

// Items returns the current evidence items.
func (r *EvidenceList) Items() []domain.ScoredChunk {
	return r.items
}

// Selected returns the index of the selected item.
func (r *EvidenceList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *EvidenceList) SetSelected(index int) {
	if index >= 0 && index < len(r.items) {
		r.selected = index
	}
}

// SelectedItem returns the currently selected item, or nil if none.
func (r *EvidenceList) SelectedItem() *domain.ScoredChunk {
	if len(r.items) == 0 || r.selected < 0 || r.selected >= len(r.items) {
		return nil
	}
	return &r.items[r.selected]
}

// MoveUp moves selection up.
func (r *EvidenceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *EvidenceList) MoveDown() {
	if r.selected < len(r.items)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *EvidenceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Width returns the current width.
func (r *EvidenceList) Width() int {
	return r.width
}

// Height returns the current height.
func (r *EvidenceList) Height() int {
	return r.height
}

// Count returns the number of items.
func (r *EvidenceList) Count() int {
	return len(r.items)
}

// IsEmpty returns whether the list is empty.
func (r *EvidenceList) IsEmpty() bool {
	return len(r.items) == 0
}
