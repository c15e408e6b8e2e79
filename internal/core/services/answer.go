package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/lexgate/internal/core/domain"
	"github.com/custodia-labs/lexgate/internal/core/ports/driven"
	"github.com/custodia-labs/lexgate/internal/core/ports/driving"
	"github.com/custodia-labs/lexgate/internal/logger"
)

// Ensure AnswerGate implements the interface.
var _ driving.Answerer = (*AnswerGate)(nil)

// RefusalText is returned instead of an answer when no reliable source exists.
const RefusalText = "Aucune source juridique fiable ne permet de répondre à cette question. " +
	"Reformulez la question ou précisez la juridiction et le domaine du droit."

const (
	sourcesOpen  = "[SOURCES]"
	sourcesClose = "[/SOURCES]"
)

// AnswerGate calls the answer generator only on grounded evidence and
// checks every citation it returns against that evidence.
type AnswerGate struct {
	retriever driving.Retriever
	generator driven.AnswerGenerator
	prompts   driven.PromptStore
}

// NewAnswerGate creates an answer gate.
func NewAnswerGate(retriever driving.Retriever, generator driven.AnswerGenerator) *AnswerGate {
	return &AnswerGate{retriever: retriever, generator: generator}
}

// SetPromptStore makes the gate load its system prompt from store.
func (g *AnswerGate) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// Answer retrieves evidence for query and, when grounded, generates an
// answer from it. Ungrounded queries are refused without generation.
func (g *AnswerGate) Answer(ctx context.Context, query string, filter domain.RetrievalFilter) (*domain.Answer, error) {
	retrieval, err := g.retriever.Retrieve(ctx, query, filter)
	if err != nil {
		return nil, err
	}

	if !retrieval.Grounded() {
		return &domain.Answer{Text: RefusalText, Refused: true, Retrieval: retrieval}, nil
	}
	if g.generator == nil {
		return nil, errors.New("answer generator not configured")
	}

	prompt := fmt.Sprintf(g.promptTemplate(), FormatContext(retrieval.Evidence))
	raw, err := g.generator.Generate(ctx, query, retrieval.Evidence, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	text, citations := ParseSources(raw)
	answer := &domain.Answer{Text: text, Retrieval: retrieval}
	for _, c := range citations {
		verifyCitation(&c, retrieval.Evidence)
		if !c.Verified {
			answer.Flagged = true
			logger.Warn("Answer cites %q which is not in the evidence", c.Reference)
		}
		answer.Citations = append(answer.Citations, c)
	}
	if len(answer.Citations) == 0 {
		answer.Flagged = true
		logger.Warn("Answer cites no sources")
	}
	return answer, nil
}

// promptTemplate returns the stored system prompt when it has exactly one
// %s placeholder, otherwise the default.
func (g *AnswerGate) promptTemplate() string {
	if g.prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	tmpl, err := g.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		logger.Debug("Using default answer prompt: %v", err)
		return driven.DefaultAnswerPrompt
	}
	if strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%") != 1 {
		logger.Warn("Answer prompt must contain a single %%s placeholder, using default")
		return driven.DefaultAnswerPrompt
	}
	return tmpl
}

// FormatContext renders evidence for the generator prompt. Legislation is
// tagged [LOI-n], jurisprudence [ATF-n] and anything else [SRC].
func FormatContext(bundle *domain.EvidenceBundle) string {
	if bundle == nil || len(bundle.Items) == 0 {
		return ""
	}

	var laws, decisions, other []*domain.ScoredChunk
	for i := range bundle.Items {
		item := &bundle.Items[i]
		switch item.Chunk.Kind.DocType() {
		case "legislation":
			laws = append(laws, item)
		case "jurisprudence":
			decisions = append(decisions, item)
		default:
			other = append(other, item)
		}
	}

	var b strings.Builder
	if len(laws) > 0 {
		b.WriteString("=== LÉGISLATION ===\n")
		for i, item := range laws {
			fmt.Fprintf(&b, "[LOI-%d] %s (pertinence: %.0f%%)\n", i+1, reference(item), item.Score*100)
			fmt.Fprintf(&b, "URL: %s\n%s\n\n", item.Chunk.URL, item.Chunk.Text)
		}
	}
	if len(decisions) > 0 {
		b.WriteString("=== JURISPRUDENCE ===\n")
		for i, item := range decisions {
			fmt.Fprintf(&b, "[ATF-%d] %s (pertinence: %.0f%%)\n", i+1, reference(item), item.Score*100)
			fmt.Fprintf(&b, "URL: %s\n%s\n\n", item.Chunk.URL, item.Chunk.Text)
		}
	}
	for _, item := range other {
		fmt.Fprintf(&b, "[SRC] %s\n%s\n\n", reference(item), item.Chunk.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ParseSources splits generator output into the answer text and the
// citations of its [SOURCES] block. A malformed block yields no citations.
func ParseSources(raw string) (string, []domain.Citation) {
	open := strings.Index(raw, sourcesOpen)
	if open < 0 {
		return strings.TrimSpace(raw), nil
	}
	text := strings.TrimSpace(raw[:open])

	block := raw[open+len(sourcesOpen):]
	if end := strings.Index(block, sourcesClose); end >= 0 {
		block = block[:end]
	}

	var citations []domain.Citation
	if err := json.Unmarshal([]byte(strings.TrimSpace(block)), &citations); err != nil {
		logger.Debug("Ignoring malformed sources block: %v", err)
		return text, nil
	}

	out := citations[:0]
	for _, c := range citations {
		c.Reference = strings.TrimSpace(c.Reference)
		// The generator does not get to vouch for its own sources.
		c.Verified = false
		if c.Reference != "" || c.URL != "" {
			out = append(out, c)
		}
	}
	return text, out
}

// verifyCitation marks c verified when it names a chunk of the bundle,
// and fills in the title and URL from that chunk when missing.
func verifyCitation(c *domain.Citation, bundle *domain.EvidenceBundle) {
	ref := normalizeRef(c.Reference)
	for i := range bundle.Items {
		item := &bundle.Items[i]
		if !citationMatches(ref, c.URL, item) {
			continue
		}
		c.Verified = true
		if c.Title == "" {
			c.Title = item.DocumentTitle
		}
		if c.URL == "" {
			c.URL = item.Chunk.URL
		}
		return
	}
}

// citationMatches accepts the exact chunk citation or a prefix of it that
// ends at a word boundary ("ATF 142 III 123" for "ATF 142 III 123,
// Considérants 2"). A citation without reference matches by URL.
func citationMatches(ref, url string, item *domain.ScoredChunk) bool {
	if ref == "" {
		return url != "" && url == item.Chunk.URL
	}
	cited := normalizeRef(item.Chunk.Citation)
	if cited == ref {
		return true
	}
	if strings.HasPrefix(cited, ref) {
		next := []rune(cited[len(ref):])[0]
		return !unicode.IsLetter(next) && !unicode.IsDigit(next)
	}
	return false
}

func normalizeRef(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func reference(item *domain.ScoredChunk) string {
	if item.Chunk.Citation != "" {
		return item.Chunk.Citation
	}
	if item.DocumentTitle != "" {
		return item.DocumentTitle
	}
	return "Réf. inconnue"
}
