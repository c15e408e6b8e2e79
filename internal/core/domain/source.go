package domain

import "time"

// Source types understood by the connector factory.
const (
	SourceTypeFedlex         = "fedlex"
	SourceTypeEntscheidsuche = "entscheidsuche"
	SourceTypeCantonal       = "cantonal"
)

// SourceConfig describes one configured catalog source.
type SourceConfig struct {
	// ID is the unique source identifier, used as document origin.
	ID string

	// Type selects the connector implementation.
	Type string

	// Workers is the number of concurrent item fetches.
	Workers int

	// RPS and Burst bound the request rate against the remote.
	RPS   float64
	Burst int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Schedule is an optional cron expression for recurring ingestion.
	Schedule string

	// Filters carries connector-specific options (canton, rs, date_from, ...).
	Filters map[string]string
}

// Filter returns a connector option or the empty string.
func (s SourceConfig) Filter(key string) string {
	if s.Filters == nil {
		return ""
	}
	return s.Filters[key]
}
