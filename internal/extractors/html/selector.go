package html

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure SelectorExtractor implements the interface.
var _ driven.Extractor = (*SelectorExtractor)(nil)

// fallbackSelectors are tried after the entry's own selector.
var fallbackSelectors = []string{
	"div[id^='art']",
	"div[class*='article']",
	"p[id^='art']",
	"section",
	"article",
	".legis-text p",
	"td.article",
}

var articleNumber = regexp.MustCompile(`Art\.?\s*(\d+[a-z]?)`)

// SelectorExtractor reads cantonal legislation portals. The CSS selector
// comes from the catalog entry ("selector" metadata).
type SelectorExtractor struct{}

// NewSelectorExtractor creates a new selector-driven extractor.
func NewSelectorExtractor() *SelectorExtractor {
	return &SelectorExtractor{}
}

// Name returns the extractor name.
func (e *SelectorExtractor) Name() string { return "cantonal-selector" }

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *SelectorExtractor) SupportedMIMETypes() []string { return MIMETypes }

// SupportedSources returns the cantonal source type.
func (e *SelectorExtractor) SupportedSources() []string {
	return []string{domain.SourceTypeCantonal}
}

// Priority returns the selection priority.
func (e *SelectorExtractor) Priority() int { return 90 }

// Extract returns one section per element matched by the first selector
// that matches anything. Without a match the body text is returned with
// no sections.
func (e *SelectorExtractor) Extract(_ context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var elements *goquery.Selection
	for _, sel := range selectors(raw.Entry.Metadata["selector"]) {
		if found := doc.Find(sel); found.Length() > 0 {
			elements = found
			break
		}
	}

	result := &domain.Extraction{Title: title(doc, raw.Entry.Title)}

	if elements != nil {
		elements.Each(func(i int, el *goquery.Selection) {
			text := spacedText(el)
			if text == "" {
				return
			}
			label := fmt.Sprintf("§%d", i+1)
			if m := articleNumber.FindStringSubmatch(text); m != nil {
				label = "Art. " + m[1]
			}
			anchor, _ := el.Attr("id")
			result.Sections = append(result.Sections, domain.Section{
				Kind:   domain.SectionArticle,
				Label:  label,
				Anchor: anchor,
				Text:   text,
			})
		})
	}

	if len(result.Sections) > 0 {
		result.Text = joinSections(result.Sections)
		return result, nil
	}

	result.Text = strings.Join(bodyLines(doc), "\n")
	if result.Text == "" {
		return nil, extractionError(raw, ErrEmptyDocument)
	}
	return result, nil
}

func selectors(entrySelector string) []string {
	var out []string
	for _, s := range strings.Split(entrySelector, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return append(out, fallbackSelectors...)
}
