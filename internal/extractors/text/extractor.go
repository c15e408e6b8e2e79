// Package text extracts plain-text payloads, as served for some court
// decisions and cantonal notices.
package text

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// maxTitleLen bounds the first-line title heuristic.
const maxTitleLen = 200

// Extractor splits plain text into blank-line separated blocks.
type Extractor struct{}

// New creates a plain-text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string { return "plaintext" }

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// SupportedSources returns nil (all sources).
func (e *Extractor) SupportedSources() []string { return nil }

// Priority returns the selection priority.
func (e *Extractor) Priority() int { return 50 }

// Extract decodes the payload and returns one block section per paragraph.
// Payloads that are not valid UTF-8 are read as Windows-1252, the encoding
// older cantonal archives use.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	id := raw.Entry.CatalogID

	content := raw.Content
	if !utf8.Valid(content) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return nil, &domain.ExtractionError{ItemID: id, Err: err}
		}
		content = decoded
	}

	body := strings.ReplaceAll(string(content), "\r\n", "\n")
	body = strings.TrimPrefix(body, "\ufeff")

	var sections []domain.Section
	var texts []string
	for _, block := range strings.Split(body, "\n\n") {
		block = normaliseBlock(block)
		if block == "" {
			continue
		}
		sections = append(sections, domain.Section{Kind: domain.SectionBlock, Text: block})
		texts = append(texts, block)
	}
	if len(sections) == 0 {
		return nil, &domain.ExtractionError{ItemID: id, Err: errors.New("empty text")}
	}

	title := raw.Entry.Title
	if title == "" {
		title = firstLine(texts[0])
	}
	return &domain.Extraction{
		Title:    title,
		Text:     strings.Join(texts, "\n\n"),
		Sections: sections,
	}, nil
}

// normaliseBlock joins hard-wrapped lines and collapses inner whitespace.
func normaliseBlock(block string) string {
	return strings.Join(strings.Fields(block), " ")
}

func firstLine(block string) string {
	if utf8.RuneCountInString(block) <= maxTitleLen {
		return block
	}
	r := []rune(block)
	return strings.TrimSpace(string(r[:maxTitleLen]))
}
