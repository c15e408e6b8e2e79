package fedlex

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor format is invalid.
var ErrInvalidCursor = errors.New("fedlex: invalid cursor format")

// Cursor is the paging position in the act list.
type Cursor struct {
	Version int `json:"v"`
	Offset  int `json:"offset"`
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
	if err := json.Unmarshal(data, &c); err != nil || c.Offset < 0 {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
