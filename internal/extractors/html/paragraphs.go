package html

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure ParagraphExtractor implements the interface.
var _ driven.Extractor = (*ParagraphExtractor)(nil)

// minLineChars drops page furniture such as "1", "-" or "|".
const minLineChars = 4

// ParagraphExtractor reads generic markup, typically court decisions, as
// one line per innermost block element.
type ParagraphExtractor struct{}

// NewParagraphExtractor creates a new generic markup extractor.
func NewParagraphExtractor() *ParagraphExtractor {
	return &ParagraphExtractor{}
}

// Name returns the extractor name.
func (e *ParagraphExtractor) Name() string { return "html-paragraphs" }

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *ParagraphExtractor) SupportedMIMETypes() []string { return MIMETypes }

// SupportedSources returns nil (all sources).
func (e *ParagraphExtractor) SupportedSources() []string { return nil }

// Priority returns the selection priority.
func (e *ParagraphExtractor) Priority() int { return 50 }

// Extract returns the text of every innermost div or p, one per line.
func (e *ParagraphExtractor) Extract(_ context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var lines []string
	doc.Find("div, p").Each(func(_ int, s *goquery.Selection) {
		if s.Find("div, p").Length() > 0 {
			return
		}
		if t := spacedText(s); utf8.RuneCountInString(t) >= minLineChars {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		lines = bodyLines(doc)
	}

	text := strings.Join(lines, "\n")
	if text == "" {
		return nil, extractionError(raw, ErrEmptyDocument)
	}
	return &domain.Extraction{Title: title(doc, raw.Entry.Title), Text: text}, nil
}
