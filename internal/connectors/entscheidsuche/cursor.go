package entscheidsuche

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor format is invalid.
var ErrInvalidCursor = errors.New("entscheidsuche: invalid cursor format")

// Cursor holds the sort values of the last hit of the previous page.
// SearchAfter is kept raw so numeric sort keys round-trip exactly.
type Cursor struct {
	Version     int             `json:"v"`
	SearchAfter json.RawMessage `json:"search_after,omitempty"`
}

// Encode serializes the cursor to a base64-encoded JSON string.
func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor. An empty string is the first page.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{Version: CursorVersion}, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
