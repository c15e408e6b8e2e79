// Package statute chunks laws and ordinances article by article.
package statute

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/postprocessors/chunker"
)

// Ensure Strategy implements the interface.
var _ driven.ChunkStrategy = (*Strategy)(nil)

// articleStart matches an article heading at the start of a line, as found
// in PDF or flattened text.
var articleStart = regexp.MustCompile(`(?m)^[ \t]*(?:Art\.|§)[ \t]*(\d+[a-z]*)`)

// Strategy emits one chunk per article. Articles above the size bound are
// split further and numbered "(n/m)".
type Strategy struct {
	splitter *chunker.Splitter
}

// New creates a statute strategy using splitter for oversized articles.
func New(splitter *chunker.Splitter) *Strategy {
	return &Strategy{splitter: splitter}
}

// Name returns the strategy name.
func (s *Strategy) Name() string { return "statute" }

// Kind returns the document kind this strategy handles.
func (s *Strategy) Kind() domain.DocumentKind { return domain.KindStatute }

type unit struct {
	role   domain.ChunkRole
	label  string
	anchor string
	path   []string
	page   int
	text   string
}

// Chunk splits doc into article chunks. Article sections from extraction
// are used when present, then article headings found in the text, then
// pages or the plain text.
func (s *Strategy) Chunk(ctx context.Context, doc *domain.LegalDocument) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := articleSections(doc.Sections)
	if len(units) == 0 {
		units = articlesFromText(fullText(doc))
	}
	if len(units) == 0 {
		units = pages(doc.Sections)
	}
	if len(units) == 0 && strings.TrimSpace(doc.Text) != "" {
		units = []unit{{role: domain.RoleFullText, text: doc.Text}}
	}

	act := actName(doc)
	var chunks []domain.Chunk
	for _, u := range units {
		parts := s.splitter.Split(u.text)
		for i, part := range parts {
			citation := s.citation(act, u)
			if len(parts) > 1 {
				citation = fmt.Sprintf("%s (%d/%d)", citation, i+1, len(parts))
			}

			meta := map[string]any{}
			if u.label != "" {
				meta["article"] = u.label
			}
			if len(u.path) > 0 {
				meta["section_path"] = strings.Join(u.path, " > ")
			}
			if u.page > 0 {
				meta["page"] = u.page
			}

			chunks = append(chunks, domain.Chunk{
				Role:     u.role,
				Text:     part,
				Citation: citation,
				URL:      anchorURL(doc.URL, u.anchor),
				Metadata: meta,
			})
		}
	}
	return chunks, nil
}

func (s *Strategy) citation(act string, u unit) string {
	switch {
	case u.label != "":
		return strings.TrimSpace(u.label + " " + act)
	case u.page > 0:
		return fmt.Sprintf("%s, p. %d", act, u.page)
	default:
		return act
	}
}

func articleSections(sections []domain.Section) []unit {
	var out []unit
	for _, sec := range sections {
		if sec.Kind != domain.SectionArticle || strings.TrimSpace(sec.Text) == "" {
			continue
		}
		out = append(out, unit{
			role:   domain.RoleArticle,
			label:  articleLabel(sec.Label),
			anchor: sec.Anchor,
			path:   sec.Path,
			text:   sec.Text,
		})
	}
	return out
}

// articlesFromText cuts text at article headings. Text before the first
// heading becomes a preamble unit.
func articlesFromText(text string) []unit {
	locs := articleStart.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var out []unit
	if pre := strings.TrimSpace(text[:locs[0][0]]); pre != "" {
		out = append(out, unit{role: domain.RoleHeader, text: pre})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[0]:end])
		if body == "" {
			continue
		}
		label := "Art. " + text[loc[2]:loc[3]]
		if strings.Contains(text[loc[0]:loc[2]], "§") {
			label = "§ " + text[loc[2]:loc[3]]
		}
		out = append(out, unit{role: domain.RoleArticle, label: label, text: body})
	}
	return out
}

func pages(sections []domain.Section) []unit {
	var out []unit
	for _, sec := range sections {
		if sec.Kind == domain.SectionArticle || strings.TrimSpace(sec.Text) == "" {
			continue
		}
		out = append(out, unit{role: domain.RoleFullText, page: sec.Page, text: sec.Text})
	}
	return out
}

func fullText(doc *domain.LegalDocument) string {
	if strings.TrimSpace(doc.Text) != "" {
		return doc.Text
	}
	texts := make([]string, 0, len(doc.Sections))
	for _, sec := range doc.Sections {
		texts = append(texts, sec.Text)
	}
	return strings.Join(texts, "\n\n")
}

var leadingArticle = regexp.MustCompile(`^(?:Art\.|Article)\s*(\d+[a-z]*)`)

// articleLabel reduces a heading such as "Art. 41 Responsabilité" to
// "Art. 41". Other headings are returned unchanged.
func articleLabel(heading string) string {
	heading = strings.TrimSpace(heading)
	if m := leadingArticle.FindStringSubmatch(heading); m != nil {
		return "Art. " + m[1]
	}
	return heading
}

// actName is the short reference used in citations, e.g. "CO".
func actName(doc *domain.LegalDocument) string {
	if doc.Reference != "" {
		return doc.Reference
	}
	if doc.Title != "" {
		return doc.Title
	}
	return doc.ExternalID
}

func anchorURL(base, anchor string) string {
	if anchor == "" || base == "" {
		return base
	}
	if i := strings.Index(base, "#"); i >= 0 {
		base = base[:i]
	}
	return base + "#" + anchor
}
