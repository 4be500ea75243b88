package pagination

import (
	"slices"
	"time"
)

// Window describes one keyset page fetch: the comparison to apply against
// the decoded position, the sort direction and the row limit.
type Window struct {
	After   *Position // nil for the first page
	Reverse bool      // walk toward newer rows (ORDER BY ... ASC)
	Limit   int       // page size plus one look-ahead row
}

// Plan turns a cursor and page size into a Window. The cursor must already
// be validated by Decode; an empty cursor starts from the newest row.
func Plan(cursor string, pageSize int) (Window, error) {
	w := Window{Limit: ClampPageSize(pageSize) + 1}
	if cursor == "" {
		return w, nil
	}
	p, err := Decode(cursor)
	if err != nil {
		return w, err
	}
	w.After = &p
	w.Reverse = p.Reverse
	return w, nil
}

// Slice trims rows fetched for w into a newest-first page and computes the
// neighbouring cursors. key extracts each row's position.
func Slice[T any](w Window, rows []T, key func(T) (time.Time, string)) (page []T, next, prev string) {
	size := w.Limit - 1
	more := len(rows) > size
	if more {
		rows = rows[:size]
	}
	if w.Reverse {
		slices.Reverse(rows)
	}
	if len(rows) == 0 {
		return rows, "", ""
	}

	first, last := rows[0], rows[len(rows)-1]
	fAt, fID := key(first)
	lAt, lID := key(last)

	if w.Reverse {
		// Came from an older page, so an older page always exists.
		next = Encode(Position{CreatedAt: lAt, ID: lID})
		if more {
			prev = Encode(Position{CreatedAt: fAt, ID: fID, Reverse: true})
		}
		return rows, next, prev
	}

	if more {
		next = Encode(Position{CreatedAt: lAt, ID: lID})
	}
	if w.After != nil {
		prev = Encode(Position{CreatedAt: fAt, ID: fID, Reverse: true})
	}
	return rows, next, prev
}
