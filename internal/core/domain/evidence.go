package domain

import (
	"fmt"
	"strings"
)

// RetrievalFilter restricts retrieval to chunks with matching metadata.
// Empty fields match everything.
type RetrievalFilter struct {
	Jurisdiction string
	LegalDomain  LegalDomain
	Kind         DocumentKind
}

// ParseRetrievalFilter builds a filter from user input. Jurisdictions are
// upper-cased canton codes or "CH"; unknown domains and kinds are rejected.
func ParseRetrievalFilter(jurisdiction, legalDomain, kind string) (RetrievalFilter, error) {
	f := RetrievalFilter{
		Jurisdiction: strings.ToUpper(strings.TrimSpace(jurisdiction)),
		LegalDomain:  LegalDomain(strings.ToLower(strings.TrimSpace(legalDomain))),
		Kind:         DocumentKind(strings.ToLower(strings.TrimSpace(kind))),
	}
	if f.LegalDomain != "" && !f.LegalDomain.IsValid() {
		return RetrievalFilter{}, fmt.Errorf("%w: unknown legal domain %q", ErrInvalidInput, legalDomain)
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		return RetrievalFilter{}, fmt.Errorf("%w: unknown kind %q (want statute or decision)", ErrInvalidInput, kind)
	}
	return f, nil
}

// IsEmpty returns true if the filter restricts nothing.
func (f RetrievalFilter) IsEmpty() bool {
	return f.Jurisdiction == "" && f.LegalDomain == "" && f.Kind == ""
}

// Matches reports whether the chunk satisfies the filter.
func (f RetrievalFilter) Matches(c *Chunk) bool {
	if f.Jurisdiction != "" && c.Jurisdiction != f.Jurisdiction {
		return false
	}
	if f.LegalDomain != "" && c.LegalDomain != f.LegalDomain {
		return false
	}
	if f.Kind != "" && c.Kind != f.Kind {
		return false
	}
	return true
}

// ScoredChunk is a chunk paired with its cosine similarity to a query.
type ScoredChunk struct {
	Chunk Chunk

	// DocumentTitle is the title of the parent document.
	DocumentTitle string

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// EvidenceBundle is the ranked set of chunks passing the similarity
// threshold for one query. It is never empty and never persisted.
type EvidenceBundle struct {
	Query     string
	Items     []ScoredChunk
	MaxScore  float64
	Threshold float64
}

// Citations returns the citation strings of the bundle in rank order.
func (b *EvidenceBundle) Citations() []string {
	out := make([]string, 0, len(b.Items))
	for i := range b.Items {
		out = append(out, b.Items[i].Chunk.Citation)
	}
	return out
}

// Verdict is the terminal state of a retrieval.
type Verdict string

const (
	// VerdictGrounded means at least one chunk passed the threshold.
	VerdictGrounded Verdict = "grounded"

	// VerdictUngrounded means no reliable source exists. Callers must state
	// inability to answer.
	VerdictUngrounded Verdict = "ungrounded"
)

// Retrieval is the outcome of the grounding gate for one query.
type Retrieval struct {
	Verdict Verdict

	// Evidence is nil when the verdict is ungrounded.
	Evidence *EvidenceBundle

	// TopScore is the best similarity observed, including results below
	// the threshold. Zero when the store returned nothing.
	TopScore float64
}

// Grounded reports whether evidence is available.
func (r *Retrieval) Grounded() bool {
	return r.Verdict == VerdictGrounded && r.Evidence != nil && len(r.Evidence.Items) > 0
}
