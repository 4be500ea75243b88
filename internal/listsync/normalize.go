package listsync

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the UTC form date bounds are sent in.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Normalizer converts raw filter input into transport parameters. It is a
// pure function of its declarations and location.
type Normalizer struct {
	decls []FilterDecl
	loc   *time.Location
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLocation sets the zone calendar dates are interpreted in. Default UTC.
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

func NewNormalizer(decls []FilterDecl, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{decls: decls, loc: time.UTC}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the transport parameters for raw. Blank values are
// omitted; values that fail validation are omitted and reported.
func (n *Normalizer) Normalize(raw map[string]string) (map[string]string, []error) {
	out := make(map[string]string, len(raw))
	var dropped []error
	for _, d := range n.decls {
		v, ok := raw[d.Key]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		norm, err := n.value(d, v)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out[d.Key] = norm
	}
	return out, dropped
}

func (n *Normalizer) value(d FilterDecl, v string) (string, error) {
	switch d.Kind {
	case KindBoolean:
		switch strings.ToLower(v) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		}
		return "", &ValidationError{Key: d.Key, Value: v, Reason: "not a boolean"}
	case KindDateAfter, KindDateBefore:
		if !datePattern.MatchString(v) {
			return "", &ValidationError{Key: d.Key, Value: v, Reason: "expected YYYY-MM-DD"}
		}
		day, err := time.ParseInLocation(time.DateOnly, v, n.loc)
		if err != nil {
			return "", &ValidationError{Key: d.Key, Value: v, Reason: "not a calendar date"}
		}
		if d.Kind == KindDateBefore {
			day = day.AddDate(0, 0, 1)
		}
		return day.UTC().Format(TimestampLayout), nil
	default:
		return v, nil
	}
}

// FormatBool renders a native boolean the way Normalize accepts it.
func FormatBool(b bool) string { return strconv.FormatBool(b) }
