// Package postgres registers the "postgres" storage backend via the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"footballdw/internal/storage"
)

func init() {
	storage.Register("postgres", Open)
}

// Dialect differences vs the ANSI base:
//   - $n placeholders.
//   - DROP TABLE cascades, because Postgres refuses to drop a table that
//     views depend on; the view stage recreates them afterwards.
type Dialect struct {
	storage.ANSI
}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Dialect) TypeName(t storage.ColumnType) string {
	switch t {
	case storage.TypeNumber:
		return "DOUBLE PRECISION"
	case storage.TypeDate:
		return "DATE"
	case storage.TypeInteger:
		return "BIGINT"
	default:
		return "TEXT"
	}
}

func (Dialect) DropTableSQL(name string) string { return "DROP TABLE IF EXISTS " + name + " CASCADE" }

func (Dialect) RelationExistsSQL() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
}

var _ storage.Dialect = Dialect{}

// Open connects to cfg.DSN (a postgres:// URL or key=value string).
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return storage.NewDB("postgres", db, Dialect{}), nil
}
