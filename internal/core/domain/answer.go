package domain

// Citation is a source the answer generator claims to have used.
type Citation struct {
	Reference string `json:"reference"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`

	// Verified is true when the reference matches a chunk of the evidence bundle.
	Verified bool `json:"verified"`
}

// Answer is the gated output of the answer-generation collaborator.
type Answer struct {
	// Text is the generated answer, or the refusal text when Refused.
	Text string

	// Citations are the attempted citations parsed from the answer.
	Citations []Citation

	// Refused is true when no reliable source existed and generation was skipped.
	Refused bool

	// Flagged is true when the answer cites sources absent from the evidence,
	// or cites none at all.
	Flagged bool

	// Retrieval is the grounding verdict the answer was produced under.
	Retrieval *Retrieval
}
