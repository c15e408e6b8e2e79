// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// strongMargin is how far above the threshold a score counts as strong.
const strongMargin = 0.2

// Palette is the set of colours the styles are derived from.
type Palette struct {
	Accent   lipgloss.Color // Swiss red, titles and selection
	Link     lipgloss.Color // citations and subtitles
	Text     lipgloss.Color
	Faint    lipgloss.Color
	Panel    lipgloss.Color // status bar background
	Frame    lipgloss.Color
	Positive lipgloss.Color
	Caution  lipgloss.Color
	Negative lipgloss.Color
}

// DefaultPalette returns the default dark palette.
func DefaultPalette() *Palette {
	return &Palette{
		Accent:   lipgloss.Color("#D52B1E"),
		Link:     lipgloss.Color("#06B6D4"),
		Text:     lipgloss.Color("#CDD6F4"),
		Faint:    lipgloss.Color("#6C7086"),
		Panel:    lipgloss.Color("#181825"),
		Frame:    lipgloss.Color("#45475A"),
		Positive: lipgloss.Color("#A6E3A1"),
		Caution:  lipgloss.Color("#F9E2AF"),
		Negative: lipgloss.Color("#F38BA8"),
	}
}

// Styles contains the styles shared by all views.
type Styles struct {
	palette *Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// Citation renders legal references such as "Art. 271 CO".
	Citation lipgloss.Style

	// Refused is the banner shown when no evidence passes the threshold.
	Refused lipgloss.Style

	// Verified and Unverified mark answer citations after the check
	// against the evidence bundle.
	Verified   lipgloss.Style
	Unverified lipgloss.Style

	strongScore lipgloss.Style
	weakScore   lipgloss.Style
}

// NewStyles builds the styles from p. A nil palette uses the default.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}

	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Link).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Faint),
		Selected: fg(p.Text).Background(p.Accent).Bold(true),
		Help:     fg(p.Faint),

		Error:   fg(p.Negative),
		Success: fg(p.Positive),
		Warning: fg(p.Caution),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		StatusBar: fg(p.Faint).Background(p.Panel).Padding(0, 1),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame),

		Citation: fg(p.Link).Italic(true),
		Refused: fg(p.Caution).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(p.Caution).
			PaddingLeft(1),
		Verified:   fg(p.Positive),
		Unverified: fg(p.Negative).Bold(true),

		strongScore: fg(p.Positive),
		weakScore:   fg(p.Caution),
	}
}

// DefaultStyles returns styles with the default palette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the palette the styles were built from.
func (s *Styles) Palette() *Palette {
	return s.palette
}

// Score returns the style for a relevance score. Scores well above the
// threshold render as strong, scores near it as weak.
func (s *Styles) Score(score, threshold float64) lipgloss.Style {
	if score >= threshold+strongMargin {
		return s.strongScore
	}
	return s.weakScore
}
