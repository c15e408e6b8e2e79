package html

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// MIMETypes are the markup types handled by this package.
var MIMETypes = []string{"text/html", "application/xhtml+xml"}

// noise is removed before any text is read.
const noise = "script, style, nav, header, footer, aside, noscript"

var (
	// ErrEmptyDocument is returned when no text survives cleaning.
	ErrEmptyDocument = errors.New("no text content")

	spaces = regexp.MustCompile(`\s+`)
)

func parse(raw *domain.RawItem) (*goquery.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if len(bytes.TrimSpace(raw.Content)) == 0 {
		return nil, extractionError(raw, ErrEmptyDocument)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, extractionError(raw, err)
	}
	doc.Find(noise).Remove()
	return doc, nil
}

func extractionError(raw *domain.RawItem, err error) error {
	return &domain.ExtractionError{ItemID: raw.Entry.CatalogID, Err: err}
}

// normalise collapses whitespace runs into single spaces.
func normalise(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// spacedText joins the text nodes below s with single spaces, so that
// "<sup>1</sup>Le contrat" reads "1 Le contrat".
func spacedText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(s)
	return normalise(strings.Join(parts, " "))
}

// title returns the document <title> or fallback.
func title(doc *goquery.Document, fallback string) string {
	if t := normalise(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return fallback
}

// bodyLines returns the non-empty lines of the body text.
func bodyLines(doc *goquery.Document) []string {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	var lines []string
	body.Find("p, div, li, td, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, div, li, td, h1, h2, h3, h4, h5, h6").Length() > 0 {
			return
		}
		if t := spacedText(s); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		if t := spacedText(body); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

func joinSections(sections []domain.Section) string {
	texts := make([]string, 0, len(sections))
	for _, s := range sections {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, "\n\n")
}
