package extractors

import (
	"github.com/custodia-labs/lexgate/internal/extractors/html"
	"github.com/custodia-labs/lexgate/internal/extractors/pdf"
	"github.com/custodia-labs/lexgate/internal/extractors/text"
)

// NewDefaultRegistry registers the built-in extractors.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		html.NewArticleExtractor(),
		html.NewSelectorExtractor(),
		html.NewParagraphExtractor(),
		pdf.New(),
		text.New(),
	)
}
