package html

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
)

// Ensure ArticleExtractor implements the interface.
var _ driven.Extractor = (*ArticleExtractor)(nil)

// ArticleExtractor reads Fedlex HTML consolidations.
type ArticleExtractor struct{}

// NewArticleExtractor creates a new Fedlex article extractor.
func NewArticleExtractor() *ArticleExtractor {
	return &ArticleExtractor{}
}

// Name returns the extractor name.
func (e *ArticleExtractor) Name() string { return "fedlex-articles" }

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *ArticleExtractor) SupportedMIMETypes() []string { return MIMETypes }

// SupportedSources returns the Fedlex source type.
func (e *ArticleExtractor) SupportedSources() []string {
	return []string{domain.SourceTypeFedlex}
}

// Priority returns the selection priority.
func (e *ArticleExtractor) Priority() int { return 95 }

// Extract returns one article section per <article> element, in document
// order. Footnote paragraphs are skipped. Documents without articles fall
// back to plain body text.
func (e *ArticleExtractor) Extract(_ context.Context, raw *domain.RawItem) (*domain.Extraction, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var sections []domain.Section
	doc.Find("article").Each(func(_ int, art *goquery.Selection) {
		var paragraphs []string
		art.Find("p").Each(func(_ int, p *goquery.Selection) {
			if id, _ := p.Attr("id"); strings.HasPrefix(id, "fn-") {
				return
			}
			if t := spacedText(p); t != "" {
				paragraphs = append(paragraphs, t)
			}
		})
		if len(paragraphs) == 0 {
			return
		}

		anchor, _ := art.Attr("id")
		sections = append(sections, domain.Section{
			Kind:   domain.SectionArticle,
			Label:  normalise(art.Find("h6, h5, h4, h3").First().Text()),
			Anchor: anchor,
			Path:   sectionPath(art),
			Text:   strings.Join(paragraphs, "\n"),
		})
	})

	result := &domain.Extraction{Title: title(doc, raw.Entry.Title), Sections: sections}
	if len(sections) > 0 {
		result.Text = joinSections(sections)
		return result, nil
	}

	result.Text = strings.Join(bodyLines(doc), "\n")
	if result.Text == "" {
		return nil, extractionError(raw, ErrEmptyDocument)
	}
	return result, nil
}

// sectionPath returns the headings of the enclosing <section> elements,
// outermost first.
func sectionPath(art *goquery.Selection) []string {
	var path []string
	art.ParentsFiltered("section").Each(func(_ int, sec *goquery.Selection) {
		if t := normalise(sec.ChildrenFiltered(".heading").First().Text()); t != "" {
			path = append(path, t)
		}
	})
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
