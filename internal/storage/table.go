package storage

import (
	"fmt"
	"strings"
)

// TableSpec describes a table the loader creates from scratch.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

type ColumnSpec struct {
	Name string
	Type ColumnType
}

// ColumnNames returns the column names in order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// BuildCreateTableSQL renders CREATE TABLE for spec.
func BuildCreateTableSQL(d Dialect, spec TableSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("storage: table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("storage: table %s has no columns", spec.Name)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(spec.Name)
	b.WriteString(" (")
	for i, c := range spec.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c.Name))
		b.WriteByte(' ')
		b.WriteString(d.TypeName(c.Type))
	}
	b.WriteString(")")
	return b.String(), nil
}

// BuildInsertSQL constructs a multi-row INSERT for nrows rows and the
// bind-argument order expected by it (row-major).
//
// It is pure and deterministic so placeholder numbering can be unit tested
// without a database.
func BuildInsertSQL(d Dialect, table string, columns []string, nrows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c))
	}
	b.WriteString(") VALUES ")

	p := 1
	for i := 0; i < nrows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(p))
			p++
		}
		b.WriteString(")")
	}
	return b.String()
}

// RowsPerStatement caps batchSize so one statement stays within the
// dialect's bind-parameter limit.
func RowsPerStatement(d Dialect, ncols, batchSize int) int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if ncols <= 0 {
		return batchSize
	}
	if limit := d.MaxParams() / ncols; limit < batchSize {
		batchSize = limit
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return batchSize
}

// DefaultBatchSize is used when the configured batch size is not positive.
const DefaultBatchSize = 500
