package listsync

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Direction orders a sorted list.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; anything else is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Descending)) {
		return Descending
	}
	return Ascending
}

// Sort names the field a list is ordered by. The zero value means server order.
type Sort struct {
	Field     string
	Direction Direction
}

func (s Sort) String() string {
	if s.Field == "" {
		return ""
	}
	dir := s.Direction
	if dir == "" {
		dir = Ascending
	}
	return s.Field + ":" + string(dir)
}

// Filters holds scalar filter values keyed by query parameter name.
type Filters map[string]any

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	if len(f) == 0 {
		return Filters{}
	}
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// QuerySnapshot is an immutable filter/sort configuration stamped with a
// generation. Every transition returns a new value.
type QuerySnapshot struct {
	filters    Filters
	sort       Sort
	generation uint64
}

// NewSnapshot builds the initial snapshot at generation zero.
func NewSnapshot(filters Filters, sort Sort) QuerySnapshot {
	return QuerySnapshot{filters: filters.Clone(), sort: sort}
}

// Filters returns a copy of the active filters.
func (q QuerySnapshot) Filters() Filters {
	return q.filters.Clone()
}

// Filter returns a single filter value.
func (q QuerySnapshot) Filter(key string) (any, bool) {
	v, ok := q.filters[key]
	return v, ok
}

func (q QuerySnapshot) Sort() Sort {
	return q.sort
}

func (q QuerySnapshot) Generation() uint64 {
	return q.generation
}

// WithFilters merges patch into the filters. A nil value removes the key.
func (q QuerySnapshot) WithFilters(patch Filters) QuerySnapshot {
	next := q.filters.Clone()
	for k, v := range patch {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	return QuerySnapshot{filters: next, sort: q.sort, generation: q.generation + 1}
}

// WithSort replaces the sort order.
func (q QuerySnapshot) WithSort(field string, dir Direction) QuerySnapshot {
	return QuerySnapshot{
		filters:    q.filters.Clone(),
		sort:       Sort{Field: field, Direction: dir},
		generation: q.generation + 1,
	}
}

// Next keeps filters and sort but invalidates everything issued under q.
func (q QuerySnapshot) Next() QuerySnapshot {
	return QuerySnapshot{filters: q.filters.Clone(), sort: q.sort, generation: q.generation + 1}
}

// Key renders filters and sort deterministically, ignoring the generation.
func (q QuerySnapshot) Key() string {
	keys := make([]string, 0, len(q.filters))
	for k := range q.filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s=%v", k, q.filters[k])
	}
	if s := q.sort.String(); s != "" {
		b.WriteString("|")
		b.WriteString(s)
	}
	return b.String()
}

// SameValue reports whether two filter or field values are equal. Numbers
// compare by value whatever their Go type, so a json.Number decoded from a
// response equals the int it was filtered by. Anything else must match in
// type and content; "1" is not 1 and nil is not "<nil>".
func SameValue(a, b any) bool {
	if x, ok := numeric(a); ok {
		y, ok := numeric(b)
		return ok && x == y
	}
	if _, ok := numeric(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}
