package duckdb

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// filterFunc turns one query parameter value into a WHERE fragment.
type filterFunc func(value string) (clause string, args []any, err error)

// filterSet maps accepted query parameter names to their predicates.
// Parameters not in the set are ignored.
type filterSet map[string]filterFunc

func iexact(col string) filterFunc {
	return func(v string) (string, []any, error) {
		return "lower(" + col + ") = lower(CAST(? AS VARCHAR))", []any{v}, nil
	}
}

func icontains(col string) filterFunc {
	return func(v string) (string, []any, error) {
		return "contains(lower(" + col + "), lower(CAST(? AS VARCHAR)))", []any{v}, nil
	}
}

func uuidEquals(col string) filterFunc {
	return func(v string) (string, []any, error) {
		id, err := uuid.Parse(v)
		if err != nil {
			return "", nil, fmt.Errorf("not a UUID")
		}
		return col + " = ?", []any{id.String()}, nil
	}
}

func stateChoice(col string) filterFunc {
	return func(v string) (string, []any, error) {
		st := model.IngestionState(strings.ToUpper(v))
		if !st.Valid() {
			return "", nil, fmt.Errorf("unknown state")
		}
		return col + " = ?", []any{string(st)}, nil
	}
}

// since is an inclusive lower bound, before an exclusive upper bound.
// Clients send a date-only upper bound as the start of the following day.
func since(col string) filterFunc  { return timeBound(col, ">=") }
func before(col string) filterFunc { return timeBound(col, "<") }

func timeBound(col, op string) filterFunc {
	return func(v string) (string, []any, error) {
		t, err := parseFilterTime(v)
		if err != nil {
			return "", nil, err
		}
		return col + " " + op + " ?", []any{t}, nil
	}
}

// boolean selects whenTrue or whenFalse by the parameter's truth value.
func boolean(whenTrue, whenFalse string) filterFunc {
	return func(v string) (string, []any, error) {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return "", nil, fmt.Errorf("not a boolean")
		}
		if b {
			return whenTrue, nil, nil
		}
		return whenFalse, nil, nil
	}
}

var filterTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseFilterTime accepts RFC 3339 timestamps and bare dates. Values
// without a zone are taken as UTC.
func parseFilterTime(v string) (time.Time, error) {
	for _, layout := range filterTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date or timestamp")
}

// where builds the AND-ed predicate for the recognised filters.
func (fs filterSet) where(filters map[string]string) ([]string, []any, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if _, ok := fs[k]; ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var clauses []string
	var args []any
	for _, k := range keys {
		v := strings.TrimSpace(filters[k])
		if v == "" {
			continue
		}
		clause, a, err := fs[k](v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s=%q: %v", model.ErrInvalidFilter, k, v, err)
		}
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	return clauses, args, nil
}

var terminalStates = "('" + string(model.StateDone) + "', '" + string(model.StateFailed) + "')"

var exchangeFilters = filterSet{
	"name":            iexact("e.name"),
	"name__icontains": icontains("e.name"),
}

var stockFilters = filterSet{
	"ticker":            iexact("s.ticker"),
	"ticker__icontains": icontains("s.ticker"),
	"sector":            iexact("s.sector"),
	"sector__icontains": icontains("s.sector"),
	"exchange__name":    iexact("e.name"),
	"country":           iexact("s.country"),
}

var runFilters = filterSet{
	"run_id":                  uuidEquals("r.id"),
	"ticker":                  iexact("r.ticker"),
	"ticker__icontains":       icontains("r.ticker"),
	"state":                   stateChoice("r.state"),
	"requested_by":            iexact("r.requested_by"),
	"requested_by__icontains": icontains("r.requested_by"),
	"created_after":           since("r.created_at"),
	"created_before":          before("r.created_at"),
	"is_terminal":             boolean("r.state IN "+terminalStates, "r.state NOT IN "+terminalStates),
	"is_in_progress":          boolean("r.state NOT IN "+terminalStates, "r.state IN "+terminalStates),
	"bulk_queue_run":          uuidEquals("r.bulk_queue_run_id"),
}

var bulkRunFilters = filterSet{
	"requested_by":            iexact("b.requested_by"),
	"requested_by__icontains": icontains("b.requested_by"),
	"created_after":           since("b.created_at"),
	"created_before":          before("b.created_at"),
	"started_at_after":        since("b.started_at"),
	"started_at_before":       before("b.started_at"),
	"completed_at_after":      since("b.completed_at"),
	"completed_at_before":     before("b.completed_at"),
	"is_completed":            boolean("b.completed_at IS NOT NULL", "b.completed_at IS NULL"),
	"has_errors":              boolean("b.error_count > 0", "b.error_count = 0"),
}
