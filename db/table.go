// ABOUTME: In-memory tables built from raw worksheet values
// ABOUTME: Normalizes duplicate headers and pads ragged rows
package db

import (
	"fmt"
	"strings"
)

// Record is one row keyed by normalized column name.
type Record map[string]string

// Get returns the value for column, or "" when absent.
func (r Record) Get(column string) string {
	return r[column]
}

// Table is a named, ordered set of records with a header.
type Table struct {
	Name    string
	Columns []string
	Records []Record
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Records: []Record{},
	}
}

// TableFromValues builds a table from raw worksheet values where the first
// row is the header. Rows are padded to the header width; row order and count
// are preserved.
func TableFromValues(name string, values [][]string) *Table {
	if len(values) == 0 {
		return NewTable(name)
	}

	columns := NormalizeHeaders(values[0])
	t := &Table{
		Name:    name,
		Columns: columns,
		Records: make([]Record, 0, len(values)-1),
	}

	for _, row := range values[1:] {
		rec := make(Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}

	return t
}

// NormalizeHeaders makes header names unique. The first occurrence of a name
// is kept as is; later occurrences get _2, _3, ... Blank headers are named
// "Unnamed" before deduplication.
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	counts := make(map[string]int, len(raw))

	for i, h := range raw {
		base := strings.TrimSpace(h)
		if base == "" {
			base = "Unnamed"
		}

		counts[base]++
		candidate := base
		n := counts[base]
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		for seen[candidate] {
			n++
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		if n > counts[base] {
			counts[base] = n
		}

		seen[candidate] = true
		out[i] = candidate
	}

	return out
}

// HasColumn reports whether the header contains column.
func (t *Table) HasColumn(column string) bool {
	return t.columnIndex(column) >= 0
}

func (t *Table) columnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// EnsureColumns appends any missing columns to the header and gives every
// record an empty value for them. It returns the columns that were added.
func (t *Table) EnsureColumns(columns ...string) []string {
	var added []string
	for _, col := range columns {
		if col == "" || t.HasColumn(col) {
			continue
		}
		t.Columns = append(t.Columns, col)
		added = append(added, col)
		for _, rec := range t.Records {
			if _, ok := rec[col]; !ok {
				rec[col] = ""
			}
		}
	}
	return added
}

// Find returns the index of the first record whose column equals value.
func (t *Table) Find(column, value string) (int, bool) {
	for i, rec := range t.Records {
		if rec[column] == value {
			return i, true
		}
	}
	return -1, false
}

// Append adds a record, extending the header with any new columns.
func (t *Table) Append(rec Record) {
	for col := range rec {
		if !t.HasColumn(col) {
			t.EnsureColumns(col)
		}
	}
	t.Records = append(t.Records, rec)
}

// Row renders a record in header order.
func (t *Table) Row(rec Record) []string {
	row := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		row[i] = rec[col]
	}
	return row
}

// Values renders the header followed by every record.
func (t *Table) Values() [][]string {
	values := make([][]string, 0, len(t.Records)+1)
	values = append(values, append([]string(nil), t.Columns...))
	for _, rec := range t.Records {
		values = append(values, t.Row(rec))
	}
	return values
}

// Clone returns a deep copy so cached tables are never mutated by callers.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Records: make([]Record, len(t.Records)),
	}
	for i, rec := range t.Records {
		cp := make(Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		c.Records[i] = cp
	}
	return c
}
