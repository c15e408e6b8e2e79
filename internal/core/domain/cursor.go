package domain

import "time"

// IngestionCursor is the persisted pagination state of one source. It is
// passed explicitly into every fetch so restarted runs resume consistently.
type IngestionCursor struct {
	// SourceID identifies the source.
	SourceID string

	// Token is the opaque cursor for the next page to request.
	Token string

	// Fetched is the number of catalog entries processed so far.
	Fetched int

	// Pages is the number of completed pages.
	Pages int

	// Done is true once the source reported exhaustion.
	Done bool

	// LastSuccess is when the last page completed.
	LastSuccess time.Time
}
