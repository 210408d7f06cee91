// Package load writes the transformed datasets into the staging tables of
// the store.
package load

import (
	"context"
	"fmt"
	"strings"

	"footballdw/internal/frame"
	"footballdw/internal/storage"
	"footballdw/internal/transformer"
)

// Staging table names.
const (
	StgMatches     = "stg_matches"
	StgPlayerStats = "stg_player_stats"
)

type Options struct {
	// BatchSize is the number of rows per INSERT statement; the dialect's
	// bind-parameter limit may lower it.
	BatchSize int
}

// Result reports the rows written per staging table.
type Result struct {
	Matches     int64
	PlayerStats int64
}

// Staging replaces stg_matches and stg_player_stats in one transaction.
//
// Column names are lower-cased. Declared columns of the entity that the
// input lacks are created anyway and left NULL, so downstream SQL can always
// reference them. Columns not declared by the entity are kept as text.
func Staging(ctx context.Context, db *storage.DB, matches, stats *frame.Frame, opt Options) (Result, error) {
	mt, mrows, err := Table(StgMatches, matches, transformer.MatchSpec)
	if err != nil {
		return Result{}, err
	}
	st, srows, err := Table(StgPlayerStats, stats, transformer.StatsSpec)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = db.InTx(ctx, func(tx *storage.Tx) error {
		n, err := tx.ReplaceTable(ctx, mt, mrows, opt.BatchSize)
		if err != nil {
			return fmt.Errorf("load %s: %w", StgMatches, err)
		}
		res.Matches = n
		n, err = tx.ReplaceTable(ctx, st, srows, opt.BatchSize)
		if err != nil {
			return fmt.Errorf("load %s: %w", StgPlayerStats, err)
		}
		res.PlayerStats = n
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Table derives the staging table layout for f and returns its rows in
// column order.
func Table(name string, f *frame.Frame, spec transformer.Spec) (storage.TableSpec, [][]any, error) {
	ts := storage.TableSpec{Name: name}
	seen := make(map[string]string, len(f.Columns))

	add := func(col string) error {
		lc := strings.ToLower(col)
		if prev, dup := seen[lc]; dup {
			return fmt.Errorf("load %s: columns %q and %q collide as %q", name, prev, col, lc)
		}
		seen[lc] = col
		ts.Columns = append(ts.Columns, storage.ColumnSpec{Name: lc, Type: columnType(spec.KindOf(col))})
		return nil
	}

	for i, col := range f.Columns {
		if col == "" {
			col = fmt.Sprintf("unnamed_%d", i)
		}
		if err := add(col); err != nil {
			return storage.TableSpec{}, nil, err
		}
	}
	width := len(f.Columns)
	for _, col := range spec.Columns() {
		if _, ok := seen[strings.ToLower(col)]; ok {
			continue
		}
		if err := add(col); err != nil {
			return storage.TableSpec{}, nil, err
		}
	}

	rows := make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		v := make([]any, len(ts.Columns))
		copy(v, r.V[:width])
		rows[i] = v
	}
	return ts, rows, nil
}

func columnType(k transformer.Kind) storage.ColumnType {
	switch k {
	case transformer.KindNumber:
		return storage.TypeNumber
	case transformer.KindDate:
		return storage.TypeDate
	default:
		return storage.TypeText
	}
}
