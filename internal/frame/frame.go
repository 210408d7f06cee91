// Package frame holds the in-memory tabular datasets passed between the
// extract, transform and gate stages.
//
// Cell values are one of: nil (missing), string, float64 or time.Time.
package frame

import (
	"fmt"
	"strings"
)

// Row is one record. Line is the 1-based source line (header is line 1),
// or 0 for rows built in code.
type Row struct {
	V    []any
	Line int
}

// Frame is a named, column-ordered set of rows. Every row has exactly
// len(Columns) values.
type Frame struct {
	Name    string
	Columns []string
	Rows    []*Row

	index map[string]int
}

// New returns an empty frame with the given columns.
func New(name string, columns []string) *Frame {
	return &Frame{Name: name, Columns: append([]string(nil), columns...)}
}

// Append adds a row. Missing trailing values are padded with nil.
func (f *Frame) Append(line int, vals ...any) error {
	if len(vals) > len(f.Columns) {
		return fmt.Errorf("frame %s: row has %d values for %d columns", f.Name, len(vals), len(f.Columns))
	}
	v := make([]any, len(f.Columns))
	copy(v, vals)
	f.Rows = append(f.Rows, &Row{V: v, Line: line})
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Index returns the position of col, or -1.
func (f *Frame) Index(col string) int {
	if f.index == nil || len(f.index) != len(f.Columns) {
		f.reindex()
	}
	if i, ok := f.index[col]; ok {
		return i
	}
	return -1
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if _, dup := f.index[c]; !dup {
			f.index[c] = i
		}
	}
}

// Has reports whether col exists.
func (f *Frame) Has(col string) bool { return f.Index(col) >= 0 }

// Missing returns the names in cols that the frame lacks, in the given order.
func (f *Frame) Missing(cols []string) []string {
	var out []string
	for _, c := range cols {
		if !f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the values of col in row order, or nil when absent.
func (f *Frame) Column(col string) []any {
	i := f.Index(col)
	if i < 0 {
		return nil
	}
	out := make([]any, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row.V[i]
	}
	return out
}

// RenameColumns applies fn to every column name.
func (f *Frame) RenameColumns(fn func(string) string) {
	for i, c := range f.Columns {
		f.Columns[i] = fn(c)
	}
	f.index = nil
}

// Clone returns a deep copy of the row slices. Cell values are immutable so
// they are shared.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Name:    f.Name,
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([]*Row, len(f.Rows)),
	}
	for i, r := range f.Rows {
		out.Rows[i] = &Row{V: append([]any(nil), r.V...), Line: r.Line}
	}
	return out
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s[%d rows; %s]", f.Name, len(f.Rows), strings.Join(f.Columns, ","))
}
