// Package ids derives stable identifiers for documents and chunks.
//
// Identifiers are name-based UUIDs (version 5) so that re-ingesting the same
// catalog item yields the same document and chunk IDs.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
)

// namespace scopes every lexgate identifier.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://lexgate.custodia-labs.dev/"))

// Document returns the ID of the document with the given natural key.
func Document(origin, externalID string) string {
	return uuid.NewSHA1(namespace, []byte(origin+"\x00"+externalID)).String()
}

// Chunk returns the ID of the chunk at ordinal within a document.
func Chunk(documentID string, ordinal int) string {
	return uuid.NewSHA1(namespace, []byte(documentID+"#"+strconv.Itoa(ordinal))).String()
}

// New returns a random identifier.
func New() string {
	return uuid.NewString()
}

// ContentHash returns the hex SHA-256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
