package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a store transaction. Every relation replacement of a stage runs on
// one Tx.
type Tx struct {
	tx *sql.Tx
	d  Dialect
}

func (t *Tx) Dialect() Dialect { return t.d }

// Exec runs one statement and returns the affected row count when the driver
// reports it (-1 otherwise).
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

// ReplaceTable drops spec.Name, recreates it and inserts rows in batches.
// Each row must have len(spec.Columns) values.
func (t *Tx) ReplaceTable(ctx context.Context, spec TableSpec, rows [][]any, batchSize int) (int64, error) {
	if _, err := t.Exec(ctx, t.d.DropTableSQL(spec.Name)); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	ddl, err := BuildCreateTableSQL(t.d, spec)
	if err != nil {
		return 0, err
	}
	if _, err := t.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return t.InsertRows(ctx, spec.Name, spec.ColumnNames(), rows, batchSize)
}

// InsertRows bulk inserts rows using multi-row VALUES statements.
func (t *Tx) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	per := RowsPerStatement(t.d, len(columns), batchSize)

	var total int64
	var fullSQL string
	args := make([]any, 0, per*len(columns))
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		q := fullSQL
		if len(chunk) != per || q == "" {
			q = BuildInsertSQL(t.d, table, columns, len(chunk))
			if len(chunk) == per {
				fullSQL = q
			}
		}

		args = args[:0]
		for i, r := range chunk {
			if len(r) != len(columns) {
				return total, fmt.Errorf("insert %s: row %d has %d values for %d columns", table, start+i, len(r), len(columns))
			}
			for _, v := range r {
				args = append(args, t.d.BindValue(v))
			}
		}
		if _, err := t.tx.ExecContext(ctx, q, args...); err != nil {
			return total, fmt.Errorf("insert %s rows %d-%d: %w", table, start, end-1, err)
		}
		total += int64(len(chunk))
	}
	return total, nil
}

// CreateTableAs replaces name with the result of selectSQL.
func (t *Tx) CreateTableAs(ctx context.Context, name, selectSQL string) error {
	if _, err := t.Exec(ctx, t.d.DropTableSQL(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	if _, err := t.Exec(ctx, "CREATE TABLE "+name+" AS "+selectSQL); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// ReplaceView drops and recreates a view.
func (t *Tx) ReplaceView(ctx context.Context, name, selectSQL string) error {
	if _, err := t.Exec(ctx, t.d.DropViewSQL(name)); err != nil {
		return fmt.Errorf("drop view %s: %w", name, err)
	}
	if _, err := t.Exec(ctx, "CREATE VIEW "+name+" AS "+selectSQL); err != nil {
		return fmt.Errorf("create view %s: %w", name, err)
	}
	return nil
}
