// Package status renders the one-line status bar under the search view.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexgate/internal/adapters/driving/tui/styles"
)

// State is the phase of the current query.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateAnswering  State = "answering"
	StateUngrounded State = "ungrounded"
	StateError      State = "error"
	StateHelp       State = "help"
	StateResults    State = "results"
)

// Bar shows the verdict of the last retrieval and key hints.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	state       State
	message     string
	resultCount int

	// topScore and threshold describe the last verdict; hasScores is false
	// until SetScores is called.
	topScore  float64
	threshold float64
	hasScores bool

	width int
}

// NewBar creates a status bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Init implements the component contract.
func (s *Bar) Init() tea.Cmd { return nil }

// Update is a no-op; the owner drives the bar through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) { return s, nil }

// View renders the bar at its width, state on the left, hints on the right.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderHints()

	gap := max(1, s.width-lipgloss.Width(left)-lipgloss.Width(right))
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateRetrieving:
		return s.styles.Muted.Render("Retrieving evidence...")
	case StateAnswering:
		return s.styles.Muted.Render("Generating cited answer...")
	case StateUngrounded:
		text := "No reliable source found"
		if s.hasScores {
			text += fmt.Sprintf(" (best %.2f < %.2f)", s.topScore, s.threshold)
		}
		return s.styles.Warning.Render(text)
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReady, StateResults:
	}

	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	if s.resultCount == 0 {
		return s.styles.Muted.Render("Ready")
	}
	text := fmt.Sprintf("%d passages", s.resultCount)
	if s.hasScores {
		text += fmt.Sprintf(" >= %.2f, best %.2f", s.threshold, s.topScore)
	}
	return s.styles.Normal.Render(text)
}

func (s *Bar) renderHints() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) { s.state = state }

// State returns the current state.
func (s *Bar) State() State { return s.state }

// SetMessage sets a message that replaces the passage summary.
func (s *Bar) SetMessage(message string) { s.message = message }

// Message returns the current message.
func (s *Bar) Message() string { return s.message }

// SetResultCount sets the number of evidence passages.
func (s *Bar) SetResultCount(count int) { s.resultCount = count }

// ResultCount returns the number of evidence passages.
func (s *Bar) ResultCount() int { return s.resultCount }

// SetScores records the best score and the threshold of the last verdict.
func (s *Bar) SetScores(top, threshold float64) {
	s.topScore, s.threshold, s.hasScores = top, threshold, true
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) { s.width = width }

// Width returns the current width.
func (s *Bar) Width() int { return s.width }

// Clear resets the bar for a new query.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
	s.hasScores = false
}
