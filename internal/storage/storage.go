// Package storage is the backend-agnostic access layer to the analytical
// store. Backends register a Factory from init(); callers open a DB by kind.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Config is the minimal configuration needed to open a store.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; file-based backends
//     create its parent directory.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a backend and returns a ready DB.
type Factory func(ctx context.Context, cfg Config) (*DB, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Call it from an init()
// function in the backend package.
//
// Panics if kind is empty, f is nil, or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open constructs a DB using the registered backend factory.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Kind == "" {
		return nil, errors.New("storage: missing storage.kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported storage.kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// EnsureParentDir creates the directory that will hold a file-backed store.
// In-memory DSNs are left alone.
func EnsureParentDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create store directory %s: %w", dir, err)
	}
	return nil
}

// DB is an open store connection with its SQL dialect.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	kind    string
}

// NewDB wraps an already opened *sql.DB. Backends call it from their factory;
// tests use it with sqlmock.
func NewDB(kind string, db *sql.DB, d Dialect) *DB {
	return &DB{sql: db, dialect: d, kind: kind}
}

func (db *DB) Kind() string { return db.kind }

func (db *DB) Dialect() Dialect { return db.dialect }

// Close releases the connection pool. Call once.
func (db *DB) Close() error { return db.sql.Close() }

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back otherwise, so a failing stage leaves the store as it was.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&Tx{tx: sqlTx, d: db.dialect}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// Exists reports whether a table or view with the given name exists.
func (db *DB) Exists(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := db.sql.QueryRowContext(ctx, db.dialect.RelationExistsSQL(), name).Scan(&n); err != nil {
		return false, fmt.Errorf("storage: lookup %s: %w", name, err)
	}
	return n > 0, nil
}
