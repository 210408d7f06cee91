package warehouse

import (
	"context"
	"fmt"
	"strconv"

	"footballdw/internal/storage"
)

// View names.
const (
	VwTopPlayersRating       = "vw_top_players_rating"
	VwTeamGoalsVsXG          = "vw_team_goals_vs_xg"
	VwLeagueTablePoints      = "vw_league_table_points"
	VwWinDriversDeltas       = "vw_win_drivers_deltas"
	VwTeamDefensiveIntensity = "vw_team_defensive_intensity"
)

// Views lists the business views in build order.
var Views = []string{
	VwTopPlayersRating,
	VwTeamGoalsVsXG,
	VwLeagueTablePoints,
	VwWinDriversDeltas,
	VwTeamDefensiveIntensity,
}

// Thresholds are the minimum sample sizes a view requires before it reports
// a player or team.
type Thresholds struct {
	// TopPlayersMinMatches and TopPlayersMinAvgMinutes filter
	// vw_top_players_rating.
	TopPlayersMinMatches    int
	TopPlayersMinAvgMinutes float64
	// TeamXGMinMatches filters vw_team_goals_vs_xg.
	TeamXGMinMatches int
}

// DefaultThresholds returns 3 matches / 60 minutes for top players and no
// minimum beyond one observation for the xG view.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TopPlayersMinMatches:    3,
		TopPlayersMinAvgMinutes: 60,
		TeamXGMinMatches:        1,
	}
}

// BuildViews drops and recreates the five business views.
func BuildViews(ctx context.Context, db *storage.DB, th Thresholds) error {
	if th.TopPlayersMinMatches < 0 || th.TeamXGMinMatches < 0 || th.TopPlayersMinAvgMinutes < 0 {
		return fmt.Errorf("warehouse: negative view threshold %+v", th)
	}
	defs := viewSQL(th)
	return db.InTx(ctx, func(tx *storage.Tx) error {
		for _, name := range Views {
			if err := tx.ReplaceView(ctx, name, defs[name]); err != nil {
				return fmt.Errorf("warehouse: %w", err)
			}
		}
		return nil
	})
}

func viewSQL(th Thresholds) map[string]string {
	return map[string]string{
		VwTopPlayersRating: fmt.Sprintf(`SELECT
    player_id,
    player_name,
    "position",
    team_name,
    COUNT(*) AS matches_played,
    AVG(minutes) AS avg_minutes,
    AVG(rating) AS avg_rating
FROM fact_player_match
WHERE rating IS NOT NULL AND minutes IS NOT NULL
GROUP BY player_id, player_name, "position", team_name
HAVING COUNT(*) >= %d AND AVG(minutes) >= %s
ORDER BY avg_rating DESC, matches_played DESC`,
			th.TopPlayersMinMatches, strconv.FormatFloat(th.TopPlayersMinAvgMinutes, 'f', -1, 64)),

		VwTeamGoalsVsXG: fmt.Sprintf(`WITH team_match AS (
    SELECT home_team_sk AS team_sk, home_goals AS goals, home_xg AS xg
    FROM fact_match
    WHERE home_goals IS NOT NULL AND home_xg IS NOT NULL
    UNION ALL
    SELECT away_team_sk AS team_sk, away_goals AS goals, away_xg AS xg
    FROM fact_match
    WHERE away_goals IS NOT NULL AND away_xg IS NOT NULL
)
SELECT
    t.team_name,
    COUNT(*) AS matches,
    AVG(goals) AS avg_goals,
    AVG(xg) AS avg_xg,
    AVG(goals) - AVG(xg) AS goals_minus_xg
FROM team_match tm
JOIN dim_team t ON t.team_sk = tm.team_sk
GROUP BY t.team_name
HAVING COUNT(*) >= %d
ORDER BY goals_minus_xg DESC, matches DESC`, th.TeamXGMinMatches),

		VwLeagueTablePoints: `WITH home AS (
    SELECT
        home_team_sk AS team_sk,
        CASE WHEN result = 'H' THEN 3 WHEN result = 'D' THEN 1 ELSE 0 END AS pts,
        home_goals AS gf,
        away_goals AS ga
    FROM fact_match
    WHERE result IS NOT NULL
),
away AS (
    SELECT
        away_team_sk AS team_sk,
        CASE WHEN result = 'A' THEN 3 WHEN result = 'D' THEN 1 ELSE 0 END AS pts,
        away_goals AS gf,
        home_goals AS ga
    FROM fact_match
    WHERE result IS NOT NULL
),
allm AS (
    SELECT team_sk, pts, gf, ga FROM home
    UNION ALL
    SELECT team_sk, pts, gf, ga FROM away
)
SELECT
    t.team_name,
    COUNT(*) AS matches,
    SUM(pts) AS points,
    SUM(gf) AS goals_for,
    SUM(ga) AS goals_against,
    SUM(gf) - SUM(ga) AS goal_diff
FROM allm a
JOIN dim_team t ON t.team_sk = a.team_sk
GROUP BY t.team_name
ORDER BY points DESC, goal_diff DESC, goals_for DESC`,

		VwWinDriversDeltas: `SELECT
    fm.match_id,
    home_t.team_name || ' vs ' || away_t.team_name AS game,
    fm.result,
    fm.home_xg - fm.away_xg AS delta_xg,
    fm.home_shots - fm.away_shots AS delta_shots,
    fm.home_possession_pct - fm.away_possession_pct AS delta_possession
FROM fact_match fm
JOIN dim_team home_t ON home_t.team_sk = fm.home_team_sk
JOIN dim_team away_t ON away_t.team_sk = fm.away_team_sk
WHERE fm.home_xg IS NOT NULL AND fm.away_xg IS NOT NULL
    AND fm.home_shots IS NOT NULL AND fm.away_shots IS NOT NULL
    AND fm.home_possession_pct IS NOT NULL AND fm.away_possession_pct IS NOT NULL
    AND fm.result IS NOT NULL`,

		VwTeamDefensiveIntensity: `SELECT
    team_name,
    COUNT(*) AS player_match_rows,
    SUM(tackles + interceptions) AS total_actions,
    SUM(minutes) AS total_minutes,
    SUM(tackles + interceptions) / NULLIF(SUM(minutes), 0) * 90.0 AS actions_per_90
FROM fact_player_match
WHERE tackles IS NOT NULL AND interceptions IS NOT NULL AND minutes IS NOT NULL
GROUP BY team_name
HAVING SUM(minutes) > 0
ORDER BY actions_per_90 DESC`,
	}
}
