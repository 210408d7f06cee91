package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footballdw/internal/storage"
)

func openTemp(t *testing.T) *storage.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "gold", "dw.sqlite")
	db, err := storage.Open(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReplaceTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	assert.Equal(t, "sqlite", db.Kind())

	spec := storage.TableSpec{Name: "stg_matches", Columns: []storage.ColumnSpec{
		{Name: "match_id", Type: storage.TypeText},
		{Name: "date", Type: storage.TypeDate},
		{Name: "home_xg", Type: storage.TypeNumber},
	}}
	rows := [][]any{
		{"M1", time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC), 1.5},
		{"M2", nil, nil},
	}
	for i := 0; i < 2; i++ {
		err := db.InTx(ctx, func(tx *storage.Tx) error {
			n, err := tx.ReplaceTable(ctx, spec, rows, 1)
			assert.EqualValues(t, 2, n)
			return err
		})
		require.NoError(t, err)
	}

	n, err := db.Count(ctx, "stg_matches")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	res, err := db.Query(ctx, `SELECT "date", `+Dialect{}.DatePart(storage.PartDayOfWeek, `"date"`)+` FROM stg_matches WHERE match_id = 'M1'`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "2024-08-17", res.Rows[0][0])
	assert.EqualValues(t, 6, res.Rows[0][1]) // Saturday

	ok, err := db.Exists(ctx, "stg_matches")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.Exists(ctx, "dim_team")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailedStageLeavesPriorContents(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	require.NoError(t, db.InTx(ctx, func(tx *storage.Tx) error {
		return tx.CreateTableAs(ctx, "dim_team", "SELECT 1 AS team_sk, 'Arsenal' AS team_name")
	}))
	before, _, err := db.Fingerprint(ctx, "dim_team")
	require.NoError(t, err)

	err = db.InTx(ctx, func(tx *storage.Tx) error {
		if err := tx.CreateTableAs(ctx, "dim_team", "SELECT 2 AS team_sk, 'Chelsea' AS team_name"); err != nil {
			return err
		}
		return tx.CreateTableAs(ctx, "dim_player", "SELECT * FROM no_such_table")
	})
	require.Error(t, err)

	after, rows, err := db.Fingerprint(ctx, "dim_team")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, rows)
}

func TestFingerprintIgnoresPhysicalOrder(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	require.NoError(t, db.InTx(ctx, func(tx *storage.Tx) error {
		if err := tx.CreateTableAs(ctx, "a", "SELECT 1 AS k UNION ALL SELECT 2"); err != nil {
			return err
		}
		return tx.CreateTableAs(ctx, "b", "SELECT 2 AS k UNION ALL SELECT 1")
	}))
	fa, na, err := db.Fingerprint(ctx, "a")
	require.NoError(t, err)
	fb, nb, err := db.Fingerprint(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Equal(t, 2, na)
	assert.Equal(t, na, nb)
}

func TestDialect(t *testing.T) {
	d := Dialect{}
	assert.Equal(t, "REAL", d.TypeName(storage.TypeNumber))
	assert.Equal(t, "TEXT", d.TypeName(storage.TypeDate))
	assert.Equal(t, "2024-01-02", d.BindValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "CAST(strftime('%Y', d) AS INTEGER)", d.DatePart(storage.PartYear, "d"))
	assert.Equal(t, "?", d.Placeholder(3))
}
