package domain

import (
	"strings"
	"time"
)

// PayloadFormat is the expected shape of an item's payload.
type PayloadFormat string

const (
	// FormatMarkup is HTML or other structured markup.
	FormatMarkup PayloadFormat = "markup"

	// FormatBinary is a binary page-image document (PDF).
	FormatBinary PayloadFormat = "binary"
)

// CatalogEntry is one harvestable unit at a remote system, such as one
// statute or one court decision. Workers only read entries.
type CatalogEntry struct {
	// SourceID is the configured source that listed the entry.
	SourceID string

	// CatalogID is the identifier at the remote system.
	CatalogID string

	// Kind is the document kind the entry will produce.
	Kind DocumentKind

	// Format is the expected payload format.
	Format PayloadFormat

	// Title is the title as listed by the catalog.
	Title string

	// URL is where the item can be fetched, if known at listing time.
	URL string

	// Cursor is the cursor of the page that listed this entry.
	Cursor string

	// Metadata contains catalog-specific values (RS number, court hierarchy, selector).
	Metadata map[string]string
}

// CatalogPage is one page of a catalog listing.
type CatalogPage struct {
	// Entries are the items on this page, in catalog order.
	Entries []CatalogEntry

	// NextCursor is the cursor to request the following page.
	NextCursor string

	// Done is true when the source signals there are no more pages.
	Done bool
}

// RawItem is the opaque payload fetched for a catalog entry.
type RawItem struct {
	// Entry is the catalog entry this payload belongs to.
	Entry CatalogEntry

	// URL is the final URL the payload was read from.
	URL string

	// ContentType is the response content type.
	ContentType string

	// Content is the raw bytes.
	Content []byte

	// FetchedAt is when the payload was downloaded.
	FetchedAt time.Time
}

// MIMEType returns the media type without parameters, falling back to the
// entry's expected format when the server sent nothing useful.
func (r *RawItem) MIMEType() string {
	ct := strings.ToLower(strings.TrimSpace(r.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.Contains(ct, "pdf"):
		return "application/pdf"
	case ct != "" && ct != "application/octet-stream":
		return ct
	}
	if strings.HasSuffix(strings.ToLower(r.URL), ".pdf") || r.Entry.Format == FormatBinary {
		return "application/pdf"
	}
	return "text/html"
}
