// Package chunker provides size-bounded text splitting that prefers
// paragraph, then line, then sentence, then word boundaries.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the default upper bound of a chunk, in characters.
const DefaultMaxChars = 2500

// DefaultMinChars is the default size below which a trailing piece is
// merged into its predecessor.
const DefaultMinChars = 50

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)
	sentenceEnd    = regexp.MustCompile(`[.!?;:][»")\]]?\s+`)
)

// Splitter cuts text into pieces of at most MaxChars characters.
type Splitter struct {
	maxChars int
	minChars int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxChars sets the chunk bound in characters.
func WithMaxChars(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithMinChars sets the minimum size of a trailing piece.
func WithMinChars(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.minChars = n
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxChars: DefaultMaxChars,
		minChars: DefaultMinChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minChars >= s.maxChars {
		s.minChars = s.maxChars / 4
	}
	return s
}

// MaxChars returns the chunk bound.
func (s *Splitter) MaxChars() int { return s.maxChars }

// MinChars returns the minimum trailing piece size.
func (s *Splitter) MinChars() int { return s.minChars }

// Fits reports whether text is within the bound.
func (s *Splitter) Fits(text string) bool {
	return utf8.RuneCountInString(text) <= s.maxChars
}

// Split returns the pieces of text in order. Every non-space character of
// text appears in exactly one piece. Only a single word longer than the
// bound is cut mid-word.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.Fits(text) {
		return []string{text}
	}
	return s.mergeTail(s.split(text, 0))
}

type level struct {
	units func(string) []string
	sep   string
}

var levels = []level{
	{splitParagraphs, "\n\n"},
	{splitLines, "\n"},
	{splitSentences, " "},
	{strings.Fields, " "},
}

func (s *Splitter) split(text string, depth int) []string {
	if s.Fits(text) {
		return []string{text}
	}
	if depth >= len(levels) {
		return hardCut(text, s.maxChars)
	}

	lv := levels[depth]
	units := lv.units(text)
	if len(units) <= 1 {
		return s.split(text, depth+1)
	}

	var out []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			out = append(out, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	sepLen := utf8.RuneCountInString(lv.sep)
	for _, u := range units {
		n := utf8.RuneCountInString(u)
		if n > s.maxChars {
			flush()
			sub := s.split(u, depth+1)
			out = append(out, sub[:len(sub)-1]...)
			// The last piece stays open so following units can join it.
			last := sub[len(sub)-1]
			current.WriteString(last)
			currentLen = utf8.RuneCountInString(last)
			continue
		}
		if currentLen > 0 && currentLen+sepLen+n > s.maxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(lv.sep)
			currentLen += sepLen
		}
		current.WriteString(u)
		currentLen += n
	}
	flush()
	return out
}

// mergeTail folds a too-short last piece into the previous one when the
// result stays within the bound.
func (s *Splitter) mergeTail(pieces []string) []string {
	n := len(pieces)
	if n < 2 || utf8.RuneCountInString(pieces[n-1]) >= s.minChars {
		return pieces
	}
	merged := pieces[n-2] + "\n" + pieces[n-1]
	if !s.Fits(merged) {
		return pieces
	}
	return append(pieces[:n-2], merged)
}

func splitParagraphs(text string) []string {
	return nonEmpty(paragraphBreak.Split(text, -1))
}

func splitLines(text string) []string {
	return nonEmpty(strings.Split(text, "\n"))
}

func splitSentences(text string) []string {
	var out []string
	prev := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, text[prev:m[1]])
		prev = m[1]
	}
	out = append(out, text[prev:])
	return nonEmpty(out)
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hardCut(text string, max int) []string {
	var out []string
	runes := []rune(text)
	for len(runes) > max {
		out = append(out, string(runes[:max]))
		runes = runes[max:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
