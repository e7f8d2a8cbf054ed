package record

import (
	"strings"
	"time"
)

// Row is one spreadsheet record: an ordered mapping from column header to value.
// Values are string, float64, time.Time or nil (blank cell).
type Row struct {
	Number int // Spreadsheet line, 1-based (header is line 1)

	names  []string
	values map[string]any
}

// NewRow creates an empty row for the given spreadsheet line.
func NewRow(number int) Row {
	return Row{Number: number, values: make(map[string]any)}
}

// Set stores a value under a trimmed column name. Setting an existing name
// replaces the value but keeps its original position.
func (r *Row) Set(name string, value any) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

// Get returns the raw value for a column. Lookup trims the name the same way Set does.
func (r Row) Get(name string) (any, bool) {
	v, ok := r.values[strings.TrimSpace(name)]
	return v, ok
}

// Present reports whether the column exists and holds a non-blank value.
func (r Row) Present(name string) bool {
	v, ok := r.Get(name)
	return ok && !IsBlank(v)
}

// Names returns column names in insertion order.
func (r Row) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.names)
}

// Blank reports whether every value in the row is blank.
func (r Row) Blank() bool {
	for _, v := range r.values {
		if !IsBlank(v) {
			return false
		}
	}
	return true
}

// IsBlank reports whether v is nil or a whitespace-only string.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case time.Time:
		return val.IsZero()
	}
	return false
}
