// Package fedlex lists and downloads consolidated federal legislation from
// the Fedlex linked-data platform.
//
// The act catalog is paged with SPARQL LIMIT/OFFSET over in-force
// consolidation abstracts, ordered by their RS number. Each act resolves to
// its latest applicable consolidation and the French HTML manifestation.
package fedlex
