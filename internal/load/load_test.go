package load

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footballdw/internal/frame"
	"footballdw/internal/storage"
	_ "footballdw/internal/storage/sqlite"
	"footballdw/internal/transformer"
)

func sampleFrames(t *testing.T) (*frame.Frame, *frame.Frame) {
	t.Helper()
	day := time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC)

	m := frame.New("matches", []string{"match_id", "date", "home_team", "away_team", "home_goals", "away_goals", "home_xG"})
	require.NoError(t, m.Append(2, "M1", day, "Arsenal", "Chelsea", 2.0, 1.0, 1.7))
	require.NoError(t, m.Append(3, "M2", nil, "Chelsea", "Arsenal", nil, nil, nil))

	s := frame.New("player_stats", []string{"match_id", "team", "player_id", "player_name", "minutes"})
	require.NoError(t, s.Append(2, "M1", "Arsenal", "P1", "Saka", 90.0))
	return m, s
}

func TestTable_AddsDeclaredColumnsAndLowercases(t *testing.T) {
	m, _ := sampleFrames(t)
	spec, rows, err := Table(StgMatches, m, transformer.MatchSpec)
	require.NoError(t, err)

	names := spec.ColumnNames()
	assert.Equal(t, []string{"match_id", "date", "home_team", "away_team", "home_goals", "away_goals", "home_xg"}, names[:7])
	assert.Len(t, names, len(transformer.MatchSpec.Columns()))
	assert.Contains(t, names, "attendance")
	assert.Contains(t, names, "referee")

	types := map[string]storage.ColumnType{}
	for _, c := range spec.Columns {
		types[c.Name] = c.Type
	}
	assert.Equal(t, storage.TypeDate, types["date"])
	assert.Equal(t, storage.TypeNumber, types["home_xg"])
	assert.Equal(t, storage.TypeNumber, types["attendance"])
	assert.Equal(t, storage.TypeText, types["stadium"])

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(names))
	assert.Equal(t, "M1", rows[0][0])
	assert.Nil(t, rows[0][len(names)-1])
}

func TestTable_Collision(t *testing.T) {
	f := frame.New("matches", []string{"match_id", "MATCH_ID"})
	_, _, err := Table(StgMatches, f, transformer.MatchSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collide")
}

func TestTable_UnnamedColumn(t *testing.T) {
	f := frame.New("player_stats", []string{"match_id", ""})
	spec, _, err := Table(StgPlayerStats, f, transformer.StatsSpec)
	require.NoError(t, err)
	assert.Equal(t, "unnamed_1", spec.Columns[1].Name)
}

func TestStaging_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Kind: "sqlite", DSN: filepath.Join(t.TempDir(), "dw.sqlite")})
	require.NoError(t, err)
	defer db.Close()

	m, s := sampleFrames(t)
	var prints []string
	for i := 0; i < 2; i++ {
		res, err := Staging(ctx, db, m, s, Options{BatchSize: 1})
		require.NoError(t, err)
		assert.Equal(t, Result{Matches: 2, PlayerStats: 1}, res)

		fm, n, err := db.Fingerprint(ctx, StgMatches)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		fs, _, err := db.Fingerprint(ctx, StgPlayerStats)
		require.NoError(t, err)
		prints = append(prints, fm+fs)
	}
	assert.Equal(t, prints[0], prints[1])

	got, err := db.Query(ctx, `SELECT "date", home_xg, attendance FROM stg_matches ORDER BY match_id`)
	require.NoError(t, err)
	assert.Equal(t, "2024-08-17", got.Rows[0][0])
	assert.InDelta(t, 1.7, got.Rows[0][1], 1e-9)
	assert.Nil(t, got.Rows[0][2])
	assert.Nil(t, got.Rows[1][0])
}
