// Package extractors provides implementations of the Extractor interface
// for the payload formats served by legal portals. Each extractor turns a
// raw payload into plain text plus structural hints (articles, pages).
//
// Extractors are registered with the Registry at startup.
package extractors
