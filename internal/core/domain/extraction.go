package domain

// SectionKind identifies the type of a structural hint.
type SectionKind string

const (
	// SectionArticle is one statute article.
	SectionArticle SectionKind = "article"

	// SectionPage is one page of a binary document.
	SectionPage SectionKind = "page"

	// SectionBlock is a block of text from markup without article structure.
	SectionBlock SectionKind = "block"
)

// Section is a structural hint produced by extraction. Sections are kept
// in document order.
type Section struct {
	// Kind is the hint type.
	Kind SectionKind

	// Label is the heading of the section, e.g. "Art. 41".
	Label string

	// Anchor is the element id usable as a URL fragment.
	Anchor string

	// Path is the heading hierarchy above the section (Partie > Titre > Chapitre).
	Path []string

	// Page is the 1-based page number for page sections.
	Page int

	// Text is the normalised text of the section.
	Text string
}

// Extraction is the output of an extractor: plain text plus hints.
type Extraction struct {
	// Title is a title found in the payload, if any.
	Title string

	// Text is the full normalised text.
	Text string

	// Sections are the structural hints in order.
	Sections []Section
}
