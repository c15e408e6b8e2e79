package domain

// ChunkRole is the structural role of a chunk within its document.
type ChunkRole string

const (
	// RoleArticle is the text of a statute article.
	RoleArticle ChunkRole = "article"

	// RoleHeader is the text before the first section heading or article.
	RoleHeader ChunkRole = "header"

	// RoleHeadnote is the regeste or summary of a decision.
	RoleHeadnote ChunkRole = "regeste"

	// RoleFacts is the statement of facts of a decision.
	RoleFacts ChunkRole = "facts"

	// RoleReasoning is the considerations of a decision.
	RoleReasoning ChunkRole = "reasoning"

	// RoleHolding is the operative part of a decision.
	RoleHolding ChunkRole = "holding"

	// RoleFullText is used when no structure could be detected.
	RoleFullText ChunkRole = "full_text"

	// RoleAbstract is a metadata-only chunk built from an abstract.
	RoleAbstract ChunkRole = "abstract"
)

// Label returns the human-readable section name used in citations.
func (r ChunkRole) Label() string {
	switch r {
	case RoleArticle:
		return "Article"
	case RoleHeader:
		return "En-tête"
	case RoleHeadnote:
		return "Regeste"
	case RoleFacts:
		return "Faits"
	case RoleReasoning:
		return "Considérants"
	case RoleHolding:
		return "Dispositif"
	case RoleFullText:
		return "Texte intégral"
	case RoleAbstract:
		return "Résumé"
	default:
		return string(r)
	}
}

// Chunk is a bounded slice of a LegalDocument suitable for retrieval
// and citation. Its identity is (DocumentID, Ordinal).
type Chunk struct {
	// ID is derived deterministically from DocumentID and Ordinal.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Ordinal is the 0-based position within the parent.
	Ordinal int

	// Role is the structural role of the text.
	Role ChunkRole

	// Text is the size-bounded content.
	Text string

	// Citation is the human-citable reference, e.g. "Art. 41 CO".
	Citation string

	// URL resolves to the cited passage.
	URL string

	// Kind, Jurisdiction and LegalDomain are copied from the document for filtering.
	Kind         DocumentKind
	Jurisdiction string
	LegalDomain  LegalDomain

	// ArticleRefs are statute articles referenced by the text.
	ArticleRefs []string

	// Embedding is nil until the chunk has been indexed.
	Embedding []float32

	// Metadata contains additional key-value pairs.
	Metadata map[string]any
}

// IsEmbedded reports whether the chunk carries a vector.
func (c *Chunk) IsEmbedded() bool {
	return len(c.Embedding) > 0
}
