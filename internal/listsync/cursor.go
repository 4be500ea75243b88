package listsync

import (
	"fmt"
	"net/url"

	"github.com/charmbracelet/log"
)

// CursorParam is the query parameter a continuation reference carries its cursor in.
const CursorParam = "cursor"

// ExtractCursor returns the cursor embedded in a continuation reference. An
// empty reference means there is no page in that direction.
func ExtractCursor(ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference: %w", err)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", fmt.Errorf("parse reference query: %w", err)
	}
	c := q.Get(CursorParam)
	if c == "" {
		return "", fmt.Errorf("reference %q has no %s parameter", ref, CursorParam)
	}
	return c, nil
}

// CursorTracker holds the next and previous cursors of the current page.
type CursorTracker struct {
	next, prev string
	logger     *log.Logger
}

func NewCursorTracker(logger *log.Logger) *CursorTracker {
	return &CursorTracker{logger: logger}
}

// Update replaces both cursors from the references of a fresh page.
// Malformed references are logged and treated as absent.
func (c *CursorTracker) Update(nextRef, prevRef string) {
	c.next = c.extract("next", nextRef)
	c.prev = c.extract("previous", prevRef)
}

func (c *CursorTracker) extract(dir, ref string) string {
	cur, err := ExtractCursor(ref)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("ignoring malformed continuation reference", "direction", dir, "err", err)
		}
		return ""
	}
	return cur
}

func (c *CursorTracker) Reset()           { c.next, c.prev = "", "" }
func (c *CursorTracker) Next() string     { return c.next }
func (c *CursorTracker) Previous() string { return c.prev }
