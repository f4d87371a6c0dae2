package record

import (
	"fmt"
	"sort"
	"strings"
)

// Record is an ordered mapping from field name to value. Field order is the
// order in which fields were set and is preserved through the pipeline because
// output naming and reporting depend on it. Values are the scalar set produced
// by the format readers: string, int64, float64, bool, nil, nested *Record, or
// []any sequences.
type Record struct {
	keys   []string
	values map[string]any
}

// New returns an empty Record.
func New() *Record {
	return &Record{values: make(map[string]any)}
}

// FromPairs builds a Record from alternating key/value arguments. It panics on
// an odd argument count or a non-string key to surface wiring mistakes in
// tests and fixtures early.
func FromPairs(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("record: FromPairs requires an even number of arguments")
	}
	rec := New()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("record: FromPairs key %d is not a string", i/2))
		}
		rec.Set(key, pairs[i+1])
	}
	return rec
}

// Set stores a value under the given field name. Setting an existing field
// updates the value in place without changing its position.
func (r *Record) Set(name string, value any) {
	if _, exists := r.values[name]; !exists {
		r.keys = append(r.keys, name)
	}
	r.values[name] = value
}

// Get returns the value stored under name and whether the field exists.
func (r *Record) Get(name string) (any, bool) {
	value, ok := r.values[name]
	return value, ok
}

// Has reports whether the field exists.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Fields returns the field names in insertion order. The returned slice is a
// copy and safe to mutate.
func (r *Record) Fields() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Clone returns a shallow copy sharing value references but not field layout,
// so callers can normalize values without mutating the source record.
func (r *Record) Clone() *Record {
	out := New()
	for _, key := range r.keys {
		out.Set(key, r.values[key])
	}
	return out
}

// Map flattens the record into a plain map, recursing into nested records.
// Field order is lost; use Fields when order matters.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, key := range r.keys {
		out[key] = flatten(r.values[key])
	}
	return out
}

func flatten(value any) any {
	switch v := value.(type) {
	case *Record:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = flatten(item)
		}
		return out
	default:
		return value
	}
}

// String renders a compact debug representation with fields in order.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", key, r.values[key])
	}
	b.WriteByte('}')
	return b.String()
}

// Set is an ordered collection of Records read from one source. Order is
// source order (row order in a sheet) and must be preserved end to end.
type Set struct {
	// Name identifies the sheet or table the records came from, when the
	// source format has that notion. Empty for flat formats.
	Name string

	Records []*Record
}

// Len returns the number of records in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Append adds records to the end of the set.
func (s *Set) Append(records ...*Record) {
	s.Records = append(s.Records, records...)
}

// Columns returns the union of field names across all records, in first-seen
// order. Useful for reporting.
func (s *Set) Columns() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range s.Records {
		for _, name := range rec.Fields() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// SortedColumns returns Columns sorted lexically. Reporting helpers use it when
// a stable order independent of source layout is needed.
func (s *Set) SortedColumns() []string {
	cols := s.Columns()
	sort.Strings(cols)
	return cols
}
