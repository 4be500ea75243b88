// Package pagination encodes opaque keyset cursors for newest-first listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// Position identifies a row in created_at DESC, id DESC order. Reverse marks
// a cursor that walks back toward newer rows.
type Position struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"i"`
	Reverse   bool      `json:"r,omitempty"`
}

// Encode renders p as an opaque URL-safe token.
func Encode(p Position) string {
	p.CreatedAt = p.CreatedAt.UTC()
	raw, _ := json.Marshal(p)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode. Any failure wraps model.ErrInvalidCursor.
func Decode(token string) (Position, error) {
	var p Position
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return p, fmt.Errorf("%w: %v", model.ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", model.ErrInvalidCursor, err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		return p, fmt.Errorf("%w: incomplete position", model.ErrInvalidCursor)
	}
	return p, nil
}

// ClampPageSize maps n onto 1..model.MaxPageSize, using the default for n <= 0.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return model.DefaultPageSize
	case n > model.MaxPageSize:
		return model.MaxPageSize
	default:
		return n
	}
}

// Reference returns base with its cursor parameter set to cursor, keeping
// every other query parameter. An empty cursor yields "".
func Reference(base *url.URL, cursor string) string {
	if cursor == "" || base == nil {
		return ""
	}
	u := *base
	q := u.Query()
	q.Set("cursor", cursor)
	u.RawQuery = q.Encode()
	return u.String()
}
