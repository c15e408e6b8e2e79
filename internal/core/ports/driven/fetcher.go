package driven

import (
	"context"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

// Fetcher performs paginated retrieval against one remote catalog.
// Implementations apply the source's rate limit and retry policy.
type Fetcher interface {
	// SourceID returns the configured source identifier.
	SourceID() string

	// Kind returns the document kind this source produces.
	Kind() domain.DocumentKind

	// ListCatalog returns the page of entries that starts at cursor.
	// An empty cursor requests the first page. The returned page carries
	// the cursor of the following page or Done.
	ListCatalog(ctx context.Context, cursor string) (*domain.CatalogPage, error)

	// FetchItem downloads the payload of one catalog entry.
	FetchItem(ctx context.Context, entry domain.CatalogEntry) (*domain.RawItem, error)
}
