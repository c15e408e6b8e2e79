// Package docdetails provides the document details view component for the TUI.
package docdetails

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
)

const dateLayout = "2006-01-02"

// View is the document details view.
type View struct {
	styles *styles.Styles

	details      *driving.DocumentDetails
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a new document details view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		width:  80,
		height: 24,
	}
}

// SetDetails sets the document details to display.
func (v *View) SetDetails(details *driving.DocumentDetails) {
	v.details = details
	v.scrollOffset = 0
	v.err = nil
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentDetailsLoaded:
		if msg.Err != nil {
			v.SetError(msg.Err)
		} else {
			v.SetDetails(msg.Details)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	return max(1, v.height-6)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(0, len(v.buildContent())-v.visibleLines())
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.details == nil {
		return nil
	}
	d := v.details

	lines := []string{
		v.formatField("Reference", d.Reference),
		v.formatField("Title", d.Title),
		v.formatField("Kind", string(d.Kind)),
		v.formatField("Source", fmt.Sprintf("%s (%s)", d.Origin, d.ExternalID)),
	}
	if d.Jurisdiction != "" {
		lines = append(lines, v.formatField("Canton", d.Jurisdiction))
	}
	if d.LegalDomain != "" {
		lines = append(lines, v.formatField("Domain", string(d.LegalDomain)))
	}
	lines = append(lines,
		v.formatField("URL", d.URL),
		v.formatField("Chunks", fmt.Sprintf("%d (%d embedded)", d.ChunkCount, d.EmbeddedCount)))

	if !d.PublishedAt.IsZero() {
		lines = append(lines, v.formatField("Published", d.PublishedAt.Format(dateLayout)))
	}
	if !d.UpdatedAt.IsZero() {
		lines = append(lines, v.formatField("Updated", d.UpdatedAt.Format("2006-01-02 15:04:05")))
	}

	if len(d.Metadata) > 0 {
		lines = append(lines, "", "Metadata:")

		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := []rune(d.Metadata[key])
			if len(value) > 50 {
				value = append(value[:47], []rune("...")...)
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", key, string(value)))
		}
	}

	if len(d.Citations) > 0 {
		lines = append(lines, "", "Citations:")
		for _, c := range d.Citations {
			lines = append(lines, "  - "+c)
		}
	}

	return lines
}

// formatField formats a field for display.
func (v *View) formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(0, min(v.width-4, 60))))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.details == nil {
		b.WriteString(v.styles.Muted.Render("No document details available"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	lines := v.buildContent()
	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(lines) && i < v.scrollOffset+visibleLines; i++ {
		b.WriteString(v.renderLine(lines[i]))
		b.WriteString("\n")
	}

	if len(lines) > visibleLines {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleLines, len(lines)),
			len(lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderLine(line string) string {
	switch {
	case line == "Metadata:" || line == "Citations:":
		return v.styles.Subtitle.Render(line)
	case strings.HasPrefix(line, "  - "):
		return v.styles.Citation.Render(line)
	case strings.HasPrefix(line, "  "):
		if key, value, ok := strings.Cut(line, ":"); ok {
			return v.styles.Muted.Render(key+":") + v.styles.Normal.Render(value)
		}
		return v.styles.Muted.Render(line)
	default:
		if label, value, ok := strings.Cut(line, ":"); ok {
			return v.styles.Subtitle.Render(label+":") + v.styles.Normal.Render(value)
		}
		return v.styles.Normal.Render(line)
	}
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Details returns the current document details.
func (v *View) Details() *driving.DocumentDetails {
	return v.details
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
