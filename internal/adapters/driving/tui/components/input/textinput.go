// Package input provides the query field of the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
)

const (
	queryCharLimit = 512
	historyLimit   = 50
	minInputWidth  = 20
	labelWidth     = 10
)

// QueryInput is a single-line legal question field with a recall history.
// Up and down walk previously submitted questions, newest first.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// cursor indexes history while recalling; len(history) means the
	// draft being typed.
	cursor int
	draft  string
}

// NewQueryInput creates a focused, empty query field.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about Swiss law..."
	ti.CharLimit = queryCharLimit
	ti.Width = 50
	ti.Focus()

	return &QueryInput{textinput: ti, styles: s, width: 50}
}

func (s *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards editing keys to the field and handles history recall.
func (s *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && s.textinput.Focused() {
		//nolint:exhaustive // only recall keys are intercepted
		switch key.Type {
		case tea.KeyUp:
			s.recall(-1)
			return s, nil
		case tea.KeyDown:
			s.recall(1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

func (s *QueryInput) recall(step int) {
	if len(s.history) == 0 {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.textinput.Value()
	}

	s.cursor = min(max(s.cursor+step, 0), len(s.history))
	if s.cursor == len(s.history) {
		s.textinput.SetValue(s.draft)
	} else {
		s.textinput.SetValue(s.history[s.cursor])
	}
	s.textinput.CursorEnd()
}

// Submit returns the trimmed question and records it in the history.
// Blank input yields false and changes nothing.
func (s *QueryInput) Submit() (string, bool) {
	query := strings.TrimSpace(s.textinput.Value())
	if query == "" {
		return "", false
	}
	if n := len(s.history); n == 0 || s.history[n-1] != query {
		s.history = append(s.history, query)
		if len(s.history) > historyLimit {
			s.history = s.history[len(s.history)-historyLimit:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
	return query, true
}

// History returns submitted questions, oldest first.
func (s *QueryInput) History() []string {
	return append([]string(nil), s.history...)
}

func (s *QueryInput) View() string {
	label := s.styles.Title.Render("Query: ")
	field := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

func (s *QueryInput) Value() string         { return s.textinput.Value() }
func (s *QueryInput) SetValue(value string) { s.textinput.SetValue(value) }
func (s *QueryInput) Focus() tea.Cmd        { return s.textinput.Focus() }
func (s *QueryInput) Blur()                 { s.textinput.Blur() }
func (s *QueryInput) Focused() bool         { return s.textinput.Focused() }
func (s *QueryInput) Width() int            { return s.width }

// SetWidth sizes the field, leaving room for the label.
func (s *QueryInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-labelWidth, minInputWidth)
}

// Reset clears the field and ends any recall in progress.
func (s *QueryInput) Reset() {
	s.textinput.Reset()
	s.cursor = len(s.history)
	s.draft = ""
}
