// Package warehouse derives the star schema, the KPI table and the business
// views from the staging tables. Every builder fully replaces its outputs in
// one transaction.
//
// The SQL sticks to what SQLite, DuckDB and Postgres all accept; the few
// differences (types, date parts, DROP semantics) go through the dialect.
// Identifiers are lower-case and unquoted except "date" and "position".
package warehouse

import (
	"context"
	"fmt"

	"footballdw/internal/storage"
)

// Relation names.
const (
	DimTeam         = "dim_team"
	DimPlayer       = "dim_player"
	DimDate         = "dim_date"
	FactMatch       = "fact_match"
	FactPlayerMatch = "fact_player_match"
	GoldKPIs        = "gold_kpis"
)

// StarSchema lists the star schema tables in build order.
var StarSchema = []string{DimTeam, DimPlayer, DimDate, FactMatch, FactPlayerMatch}

type relation struct {
	name string
	sql  func(d storage.Dialect) string
}

var starSchema = []relation{
	{DimTeam, dimTeamSQL},
	{DimPlayer, dimPlayerSQL},
	{DimDate, dimDateSQL},
	{FactMatch, factMatchSQL},
	{FactPlayerMatch, factPlayerMatchSQL},
}

// BuildStarSchema replaces the dimension and fact tables.
func BuildStarSchema(ctx context.Context, db *storage.DB) error {
	return db.InTx(ctx, func(tx *storage.Tx) error {
		for _, r := range starSchema {
			if err := tx.CreateTableAs(ctx, r.name, r.sql(tx.Dialect())); err != nil {
				return fmt.Errorf("warehouse: %w", err)
			}
		}
		return nil
	})
}

// dim_team.team_sk is the rank of the name, so keys only move when the set
// of teams changes.
func dimTeamSQL(storage.Dialect) string {
	return `SELECT
    ROW_NUMBER() OVER (ORDER BY team_name) AS team_sk,
    team_name
FROM (
    SELECT home_team AS team_name FROM stg_matches
    UNION
    SELECT away_team AS team_name FROM stg_matches
    UNION
    SELECT team AS team_name FROM stg_player_stats
) teams
WHERE team_name IS NOT NULL AND team_name <> ''`
}

func dimPlayerSQL(storage.Dialect) string {
	return `SELECT
    player_id,
    MIN(player_name) AS player_name,
    MIN("position") AS "position"
FROM stg_player_stats
WHERE player_id IS NOT NULL AND player_id <> ''
GROUP BY player_id`
}

func dimDateSQL(d storage.Dialect) string {
	return fmt.Sprintf(`SELECT DISTINCT
    "date" AS match_date,
    %s AS year,
    %s AS month,
    %s AS day,
    %s AS day_of_week_num
FROM stg_matches
WHERE "date" IS NOT NULL`,
		d.DatePart(storage.PartYear, `"date"`),
		d.DatePart(storage.PartMonth, `"date"`),
		d.DatePart(storage.PartDay, `"date"`),
		d.DatePart(storage.PartDayOfWeek, `"date"`))
}

// result is 'D' whenever a goal count is missing: both comparisons are NULL.
func factMatchSQL(storage.Dialect) string {
	return `SELECT
    m.match_id,
    m.season,
    m.league,
    m."date" AS match_date,
    dt.year,
    dt.month,
    m.stadium,
    m.referee,
    m.attendance,
    home_t.team_sk AS home_team_sk,
    away_t.team_sk AS away_team_sk,
    m.home_goals,
    m.away_goals,
    m.home_shots,
    m.away_shots,
    m.home_xg,
    m.away_xg,
    m.home_possession_pct,
    m.away_possession_pct,
    CASE
        WHEN m.home_goals > m.away_goals THEN 'H'
        WHEN m.home_goals < m.away_goals THEN 'A'
        ELSE 'D'
    END AS result
FROM stg_matches m
LEFT JOIN dim_date dt ON dt.match_date = m."date"
LEFT JOIN dim_team home_t ON home_t.team_name = m.home_team
LEFT JOIN dim_team away_t ON away_t.team_name = m.away_team`
}

func factPlayerMatchSQL(storage.Dialect) string {
	return `SELECT
    s.match_id,
    fm.match_date,
    s.player_id,
    p.player_name,
    t.team_sk,
    s.team AS team_name,
    s."position",
    s.minutes,
    s.shots,
    s.goals,
    s.assists,
    s.passes,
    s.pass_accuracy_pct,
    s.tackles,
    s.interceptions,
    s.fouls_committed,
    CASE WHEN LOWER(s.card) = 'nan' THEN NULL ELSE s.card END AS card,
    s.rating
FROM stg_player_stats s
LEFT JOIN dim_player p ON p.player_id = s.player_id
LEFT JOIN dim_team t ON t.team_name = s.team
LEFT JOIN fact_match fm ON fm.match_id = s.match_id`
}
