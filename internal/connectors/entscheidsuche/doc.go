// Package entscheidsuche lists and downloads Swiss court decisions from the
// entscheidsuche.ch Elasticsearch index.
//
// Pages are requested with search_after over (date desc, _id asc) so the
// cursor stays stable while new decisions are published.
package entscheidsuche
