// Package sqlite registers the "sqlite" storage backend (modernc.org/sqlite,
// pure Go). It is the default store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"footballdw/internal/storage"
)

func init() {
	storage.Register("sqlite", Open)
}

// Dialect differences vs the ANSI base:
//   - SQLite has no DATE type. Dates are stored as ISO "YYYY-MM-DD" TEXT, which
//     sorts and compares correctly and is what strftime expects.
//   - Date parts come from strftime rather than EXTRACT.
type Dialect struct {
	storage.ANSI
}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) TypeName(t storage.ColumnType) string {
	switch t {
	case storage.TypeNumber:
		return "REAL"
	case storage.TypeInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func (Dialect) DatePart(part storage.DatePart, expr string) string {
	var f string
	switch part {
	case storage.PartYear:
		f = "%Y"
	case storage.PartMonth:
		f = "%m"
	case storage.PartDay:
		f = "%d"
	case storage.PartDayOfWeek:
		f = "%w"
	default:
		panic(fmt.Sprintf("sqlite: unknown date part %d", part))
	}
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", f, expr)
}

func (Dialect) BindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	return v
}

// MaxParams matches SQLITE_MAX_VARIABLE_NUMBER of current SQLite builds.
func (Dialect) MaxParams() int { return 32766 }

func (Dialect) RelationExistsSQL() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?"
}

var _ storage.Dialect = Dialect{}

// Open opens (creating if needed) the database file at cfg.DSN.
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	if err := storage.EnsureParentDir(cfg.DSN); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.DSN, err)
	}
	return storage.NewDB("sqlite", db, Dialect{}), nil
}
