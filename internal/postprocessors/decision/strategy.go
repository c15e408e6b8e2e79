// Package decision chunks court decisions by section: header, regeste,
// facts, reasoning and holding.
package decision

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/postprocessors/chunker"
)

// Ensure Strategy implements the interface.
var _ driven.ChunkStrategy = (*Strategy)(nil)

// numberedSplitMin is the text accumulated before a numbered paragraph
// may open a new chunk.
const numberedSplitMin = 200

var headings = []struct {
	role    domain.ChunkRole
	pattern *regexp.Regexp
}{
	{domain.RoleHeadnote, regexp.MustCompile(`(?i)^(Regeste|Résumé)`)},
	{domain.RoleFacts, regexp.MustCompile(`(?i)^(Sachverhalt|Faits)`)},
	{domain.RoleReasoning, regexp.MustCompile(`(?i)^(Erwägung|Considérant|En droit|Aus den Erwägungen|Extrait des considérants|Considérations en droit)`)},
	{domain.RoleHolding, regexp.MustCompile(`(?i)^(Par ces motifs|Demnach erkennt|Dispositif)`)},
}

var numberedParagraph = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s`)

// Strategy splits decisions at section headings.
type Strategy struct {
	splitter *chunker.Splitter
}

// New creates a decision strategy using splitter for oversized sections.
func New(splitter *chunker.Splitter) *Strategy {
	return &Strategy{splitter: splitter}
}

// Name returns the strategy name.
func (s *Strategy) Name() string { return "decision" }

// Kind returns the document kind this strategy handles.
func (s *Strategy) Kind() domain.DocumentKind { return domain.KindDecision }

type section struct {
	role  domain.ChunkRole
	lines []string
}

type part struct {
	role  domain.ChunkRole
	text  string
	label string
}

// Chunk returns the section chunks of doc. A decision without text but with
// an abstract yields a single abstract chunk.
//
// Citations are unique within a document: a label shared by several pieces
// gets an "(i/n)" suffix in text order.
func (s *Strategy) Chunk(ctx context.Context, doc *domain.LegalDocument) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var parts []part
	if strings.TrimSpace(doc.Text) == "" {
		for _, p := range s.splitter.Split(doc.MetadataString("abstract")) {
			parts = append(parts, part{role: domain.RoleAbstract, text: p, label: domain.RoleAbstract.Label()})
		}
	} else {
		sections := parseSections(doc.Text)
		if len(sections) == 1 && sections[0].role == domain.RoleHeader {
			sections[0].role = domain.RoleFullText
		}

		perRole := make(map[domain.ChunkRole]int)
		for _, sec := range sections {
			perRole[sec.role]++
		}
		seen := make(map[domain.ChunkRole]int)
		for _, sec := range sections {
			seen[sec.role]++
			label := sec.role.Label()
			// Reasoning is labelled by paragraph number instead.
			if sec.role != domain.RoleReasoning && perRole[sec.role] > 1 {
				label += fmt.Sprintf(" %d", seen[sec.role])
			}
			parts = append(parts, s.splitSection(sec, label)...)
		}
	}

	ref := doc.Reference
	if ref == "" {
		ref = doc.ExternalID
	}

	total := make(map[string]int)
	for _, p := range parts {
		total[p.label]++
	}
	index := make(map[string]int)

	chunks := make([]domain.Chunk, 0, len(parts))
	for _, p := range parts {
		index[p.label]++
		citation := ref + ", " + p.label
		if n := total[p.label]; n > 1 {
			citation += fmt.Sprintf(" (%d/%d)", index[p.label], n)
		}

		chunks = append(chunks, domain.Chunk{
			Role:     p.role,
			Text:     p.text,
			Citation: citation,
			URL:      doc.URL,
			Metadata: map[string]any{"section": string(p.role)},
		})
	}
	return chunks, nil
}

// parseSections assigns each non-empty line to the section opened by the
// last heading line. Lines before any heading form the header.
func parseSections(text string) []section {
	var sections []section
	current := section{role: domain.RoleHeader}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if role, ok := headingRole(line); ok {
			if len(current.lines) > 0 {
				sections = append(sections, current)
			}
			current = section{role: role, lines: []string{line}}
			continue
		}
		current.lines = append(current.lines, line)
	}
	if len(current.lines) > 0 {
		sections = append(sections, current)
	}
	return sections
}

func headingRole(line string) (domain.ChunkRole, bool) {
	for _, h := range headings {
		if h.pattern.MatchString(line) {
			return h.role, true
		}
	}
	return "", false
}

// splitSection keeps a section within the bound as one part. Larger
// sections are cut at numbered paragraphs once enough text accumulated,
// otherwise at the bound. The heading line stays on the first piece.
func (s *Strategy) splitSection(sec section, label string) []part {
	text := strings.Join(sec.lines, "\n")
	if s.splitter.Fits(text) {
		return []part{{role: sec.role, text: text, label: label}}
	}

	heading, body := "", sec.lines
	if len(body) > 1 && utf8.RuneCountInString(body[0]) <= s.splitter.MaxChars()/2 {
		if _, ok := headingRole(body[0]); ok {
			heading, body = body[0], body[1:]
		}
	}

	var groups [][]string
	var current []string
	currentLen := 0
	for _, line := range body {
		n := utf8.RuneCountInString(line)
		switch {
		case numberedParagraph.MatchString(line) && currentLen > numberedSplitMin:
			groups = append(groups, current)
			current, currentLen = []string{line}, n
		case len(current) > 0 && currentLen+n+1 > s.splitter.MaxChars():
			groups = append(groups, current)
			current, currentLen = []string{line}, n
		default:
			if len(current) > 0 {
				currentLen++
			}
			current = append(current, line)
			currentLen += n
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	var out []part
	number := ""
	for i, g := range groups {
		// Unnumbered groups continue the paragraph before them.
		if n := leadingNumber(g); n != "" && sec.role == domain.RoleReasoning {
			number = n
		}
		groupLabel := label
		if number != "" {
			groupLabel += " " + number
		}

		splitter := s.splitter
		if i == 0 && heading != "" {
			splitter = chunker.New(
				chunker.WithMaxChars(s.splitter.MaxChars()-utf8.RuneCountInString(heading)-1),
				chunker.WithMinChars(s.splitter.MinChars()),
			)
		}
		pieces := splitter.Split(strings.Join(g, "\n"))
		if i == 0 && heading != "" {
			if len(pieces) == 0 {
				pieces = []string{heading}
			} else {
				pieces[0] = heading + "\n" + pieces[0]
			}
		}
		for _, p := range pieces {
			out = append(out, part{role: sec.role, text: p, label: groupLabel})
		}
	}
	return out
}

// leadingNumber returns the paragraph number of the first line that is not
// a heading, or "" when that line is unnumbered.
func leadingNumber(lines []string) string {
	for _, line := range lines {
		if _, ok := headingRole(line); ok {
			continue
		}
		if m := numberedParagraph.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		return ""
	}
	return ""
}
