// Package all registers every storage backend with the storage factory.
// Config picks which one to use; the binary links them all.
package all

import (
	_ "footballdw/internal/storage/duckdb"
	_ "footballdw/internal/storage/postgres"
	_ "footballdw/internal/storage/sqlite"
)
