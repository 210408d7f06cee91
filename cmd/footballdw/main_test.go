package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `job: football_dw_cli
source:
  matches:
    path: bronze/futbol_matches.csv
  player_stats:
    path: bronze/futbol_player_stats.csv
storage:
  kind: sqlite
  dsn: gold/football_dw.sqlite
thresholds:
  top_players:
    min_matches: 1
    min_avg_minutes: 0
log:
  file: logs/pipeline.log
`

func writeProject(t *testing.T) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bronze"), 0o755))
	files := map[string]string{
		"bronze/futbol_matches.csv": "match_id,date,season,league,home_team,away_team,home_goals,away_goals,home_shots,away_shots,home_xG,away_xG,home_possession_pct,away_possession_pct,attendance,stadium,referee\n" +
			"M1,2024-08-17,2024/25,Premier League,Arsenal,Chelsea,2,0,14,7,1.8,0.6,58,42,60000,Emirates,Oliver\n",
		"bronze/futbol_player_stats.csv": "match_id,team,player_id,player_name,position,minutes,shots,goals,assists,passes,pass_accuracy_pct,tackles,interceptions,fouls_committed,rating,card\n" +
			"M1,Arsenal,P1,Saka,FW,90,4,1,1,35,82,1,0,1,8.1,nan\n" +
			"M1,Chelsea,P3,Palmer,MF,90,3,0,0,48,85,1,1,0,6.4,nan\n",
		"footballdw.yaml": configYAML,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir, filepath.Join(dir, "footballdw.yaml")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck_ValidInputs(t *testing.T) {
	dir, cfg := writeProject(t)
	out, _, err := execute(t, "check", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "stage=gate ok")
	assert.Contains(t, out, "DONE check")
	assert.NoFileExists(t, filepath.Join(dir, "gold", "football_dw.sqlite"))
	assert.FileExists(t, filepath.Join(dir, "logs", "pipeline.log"))
}

func TestRunThenReport(t *testing.T) {
	dir, cfg := writeProject(t)
	out, _, err := execute(t, "run", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "DONE pipeline")
	assert.FileExists(t, filepath.Join(dir, "gold", "football_dw.sqlite"))

	logged, err := os.ReadFile(filepath.Join(dir, "logs", "pipeline.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "stage=build_views ok")

	out, _, err = execute(t, "report", "--config", cfg, "--limit", "1")
	require.NoError(t, err)
	for _, title := range []string{"GOLD KPIs", "TOP PLAYERS BY RATING", "TEAMS: GOALS VS xG", "LEAGUE TABLE (POINTS)", "WIN DRIVERS (DELTAS)", "DEFENSIVE INTENSITY BY TEAM"} {
		assert.Contains(t, out, "\n"+title+"\n")
	}
	assert.Contains(t, out, "Arsenal")
	assert.Contains(t, out, "(4 rows)")
}

func TestReport_MissingStore(t *testing.T) {
	_, cfg := writeProject(t)
	_, _, err := execute(t, "report", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `footballdw run` first")
}

func TestReport_StoreWithoutWarehouse(t *testing.T) {
	dir, cfg := writeProject(t)
	dsn := filepath.Join(dir, "gold", "football_dw.sqlite")
	require.NoError(t, os.MkdirAll(filepath.Dir(dsn), 0o755))
	require.NoError(t, os.WriteFile(dsn, nil, 0o644))

	_, _, err := execute(t, "report", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no gold_kpis")
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir, cfg := writeProject(t)
	other := filepath.Join(dir, "other.sqlite")
	_, _, err := execute(t, "run", "--config", cfg, "--dsn", other)
	require.NoError(t, err)
	assert.FileExists(t, other)
	assert.NoFileExists(t, filepath.Join(dir, "gold", "football_dw.sqlite"))
}

func TestInvalidConfigAborts(t *testing.T) {
	_, cfg := writeProject(t)
	_, stderr, err := execute(t, "run", "--config", cfg, "--storage-kind", "mysql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is invalid")
	assert.True(t, strings.Contains(stderr, "storage.kind"), stderr)
}

func TestInMemoryStoreRejected(t *testing.T) {
	dir, cfg := writeProject(t)
	_, stderr, err := execute(t, "run", "--config", cfg, "--dsn", ":memory:")
	require.Error(t, err)
	assert.Contains(t, stderr, "storage.dsn")
	assert.NoFileExists(t, filepath.Join(dir, "gold", "football_dw.sqlite"))
}

func TestGateFailureReturnsError(t *testing.T) {
	dir, cfg := writeProject(t)
	bad := "match_id,team,player_id,player_name,minutes\nM9,Arsenal,P1,Saka,90\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bronze", "futbol_player_stats.csv"), []byte(bad), 0o644))

	_, _, err := execute(t, "run", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "M9")
	assert.NoFileExists(t, filepath.Join(dir, "gold", "football_dw.sqlite"))
}
