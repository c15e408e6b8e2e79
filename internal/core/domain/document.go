package domain

import "time"

// DocumentKind tags the shape of a legal document. Extraction and chunking
// strategies are dispatched on it.
type DocumentKind string

const (
	// KindStatute is a law or ordinance split into articles.
	KindStatute DocumentKind = "statute"

	// KindDecision is a court decision split into sections.
	KindDecision DocumentKind = "decision"
)

// IsValid returns true if the kind is recognised.
func (k DocumentKind) IsValid() bool {
	return k == KindStatute || k == KindDecision
}

// DocType returns the label used by the answer context for this kind.
func (k DocumentKind) DocType() string {
	switch k {
	case KindStatute:
		return "legislation"
	case KindDecision:
		return "jurisprudence"
	default:
		return "other"
	}
}

// LegalDocument is a fully fetched and extracted unit of legal text.
// (Origin, ExternalID) is the natural key; re-ingestion overwrites in place.
type LegalDocument struct {
	// ID is derived deterministically from Origin and ExternalID.
	ID string

	// Origin is the source system that produced the document (e.g. "fedlex").
	Origin string

	// ExternalID is the identifier at the origin, unique per origin.
	ExternalID string

	// Kind is the document shape.
	Kind DocumentKind

	// Title is the human-readable title.
	Title string

	// Reference is the formal reference, e.g. "CO", "ATF 142 III 123", "4A_123/2020".
	Reference string

	// Jurisdiction is "CH" for federal law, otherwise a canton code.
	Jurisdiction string

	// LegalDomain is the area of law.
	LegalDomain LegalDomain

	// Language is the ISO 639-1 language code.
	Language string

	// PublishedAt is the publication or decision date, zero when unknown.
	PublishedAt time.Time

	// URL is the canonical source URL.
	URL string

	// Text is the full extracted text.
	Text string

	// Sections are the structural hints produced by extraction.
	Sections []Section

	// ContentHash is the hex sha256 of Text, used to skip unchanged documents.
	ContentHash string

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last stored.
	UpdatedAt time.Time
}

// MetadataString returns a string metadata value, or "" when absent.
func (d *LegalDocument) MetadataString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata[key].(string); ok {
		return s
	}
	return ""
}
