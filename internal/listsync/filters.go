// Package listsync keeps a filtered, cursor-paginated list in step with a
// remote data source while user input and responses interleave.
package listsync

import (
	"fmt"
	"strings"
)

// FilterKind selects how a raw filter value is normalized.
type FilterKind int

const (
	KindExact FilterKind = iota
	KindContains
	KindBoolean
	KindDateAfter
	KindDateBefore
)

var kindNames = map[FilterKind]string{
	KindExact:      "string-exact",
	KindContains:   "string-contains",
	KindBoolean:    "boolean",
	KindDateAfter:  "date-after",
	KindDateBefore: "date-before",
}

func (k FilterKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

// ParseFilterKind maps a declaration name such as "date-after" to its kind.
func ParseFilterKind(s string) (FilterKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown filter kind %q", s)
}

// FilterDecl declares one filter key of a list view.
type FilterDecl struct {
	Key   string
	Label string
	Kind  FilterKind
}

// FilterSet holds the declared filters of a view and their raw draft values
// in declaration order. It is not safe for concurrent use; Controller guards it.
type FilterSet struct {
	decls  []FilterDecl
	index  map[string]int
	values map[string]string
}

// NewFilterSet validates decls and returns an empty set.
func NewFilterSet(decls ...FilterDecl) (*FilterSet, error) {
	fs := &FilterSet{
		decls:  make([]FilterDecl, 0, len(decls)),
		index:  make(map[string]int, len(decls)),
		values: make(map[string]string, len(decls)),
	}
	for _, d := range decls {
		if strings.TrimSpace(d.Key) == "" {
			return nil, fmt.Errorf("filter declaration with empty key")
		}
		if _, dup := fs.index[d.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFilter, d.Key)
		}
		if _, ok := kindNames[d.Kind]; !ok {
			return nil, fmt.Errorf("filter %s: invalid kind %d", d.Key, int(d.Kind))
		}
		fs.index[d.Key] = len(fs.decls)
		fs.decls = append(fs.decls, d)
	}
	return fs, nil
}

// Decls returns the declarations in order.
func (fs *FilterSet) Decls() []FilterDecl {
	out := make([]FilterDecl, len(fs.decls))
	copy(out, fs.decls)
	return out
}

// Decl looks up a declaration by key.
func (fs *FilterSet) Decl(key string) (FilterDecl, bool) {
	i, ok := fs.index[key]
	if !ok {
		return FilterDecl{}, false
	}
	return fs.decls[i], true
}

// Set stores the raw value for key. An empty value removes it.
func (fs *FilterSet) Set(key, value string) error {
	if _, ok := fs.index[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, key)
	}
	if value == "" {
		delete(fs.values, key)
		return nil
	}
	fs.values[key] = value
	return nil
}

func (fs *FilterSet) Get(key string) string { return fs.values[key] }

// Clear drops every draft value.
func (fs *FilterSet) Clear() { clear(fs.values) }

// Raw returns a copy of the draft values.
func (fs *FilterSet) Raw() map[string]string {
	out := make(map[string]string, len(fs.values))
	for k, v := range fs.values {
		out[k] = v
	}
	return out
}

// ActiveCount counts keys whose draft value is not blank.
func (fs *FilterSet) ActiveCount() int {
	n := 0
	for _, v := range fs.values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}
