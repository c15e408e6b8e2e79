// Package connectors builds the catalog fetchers for the configured legal
// sources. Each connector knows how to page through one remote catalog
// (Fedlex, entscheidsuche.ch, cantonal portals) and download its items.
//
// Fetchers are created by NewFetcher at startup.
package connectors
