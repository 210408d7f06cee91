// Package duckdb registers the "duckdb" storage backend, the embedded
// analytical engine the warehouse SQL was first written for.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"footballdw/internal/storage"
)

func init() {
	storage.Register("duckdb", Open)
}

// Dialect uses the ANSI base: "?" placeholders, EXTRACT, information_schema.
type Dialect struct {
	storage.ANSI
}

func (Dialect) Name() string { return "duckdb" }

func (Dialect) TypeName(t storage.ColumnType) string {
	switch t {
	case storage.TypeNumber:
		return "DOUBLE"
	case storage.TypeDate:
		return "DATE"
	case storage.TypeInteger:
		return "BIGINT"
	default:
		return "VARCHAR"
	}
}

var _ storage.Dialect = Dialect{}

// Open opens the database file at cfg.DSN; an empty DSN is an in-memory
// database.
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	if err := storage.EnsureParentDir(cfg.DSN); err != nil {
		return nil, err
	}
	dsn := cfg.DSN
	if dsn == ":memory:" {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return storage.NewDB("duckdb", db, Dialect{}), nil
}
