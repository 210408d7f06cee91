package storage

import (
	"context"
	"fmt"
	"strings"

	"footballdw/internal/transformer/builtin"
)

// Result is a fully materialized query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Index returns the position of col, or -1.
func (r *Result) Index(col string) int {
	for i, c := range r.Columns {
		if strings.EqualFold(c, col) {
			return i
		}
	}
	return -1
}

// Query runs a read-only statement and materializes all rows. []byte values
// are returned as strings.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, rows.Err()
}

// Count returns the number of rows in a relation.
func (db *DB) Count(ctx context.Context, relation string) (int64, error) {
	var n int64
	if err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+relation).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count %s: %w", relation, err)
	}
	return n, nil
}

// Fingerprint hashes the full contents of a relation, ordered by every
// column, and returns the digest and row count. Equal contents give equal
// fingerprints regardless of physical row order.
func (db *DB) Fingerprint(ctx context.Context, relation string) (string, int, error) {
	shape, err := db.Query(ctx, "SELECT * FROM "+relation+" WHERE 1 = 0")
	if err != nil {
		return "", 0, fmt.Errorf("storage: fingerprint %s: %w", relation, err)
	}
	if len(shape.Columns) == 0 {
		return "", 0, fmt.Errorf("storage: fingerprint %s: no columns", relation)
	}

	order := make([]string, len(shape.Columns))
	for i := range shape.Columns {
		order[i] = fmt.Sprintf("%d", i+1)
	}
	res, err := db.Query(ctx, "SELECT * FROM "+relation+" ORDER BY "+strings.Join(order, ", "))
	if err != nil {
		return "", 0, fmt.Errorf("storage: fingerprint %s: %w", relation, err)
	}

	d := builtin.NewDigest()
	d.Add(anySlice(res.Columns))
	for _, r := range res.Rows {
		d.Add(r)
	}
	return d.Sum(), len(res.Rows), nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
