package warehouse

import (
	"context"
	"fmt"

	"footballdw/internal/storage"
)

// KPI names in gold_kpis, in insertion order.
const (
	KPIAvgTotalGoals    = "avg_total_goals_per_match"
	KPIAvgAttendance    = "avg_attendance"
	KPIAvgPlayerRating  = "avg_player_rating"
	KPIAvgMinutesPlayed = "avg_minutes_played"
)

type kpi struct {
	name string
	expr string
	from string
	// where filters to rows where the inputs are present.
	where string
}

var kpis = []kpi{
	{KPIAvgTotalGoals, "home_goals + away_goals", FactMatch, "home_goals IS NOT NULL AND away_goals IS NOT NULL"},
	{KPIAvgAttendance, "attendance", FactMatch, "attendance IS NOT NULL"},
	{KPIAvgPlayerRating, "rating", FactPlayerMatch, "rating IS NOT NULL"},
	{KPIAvgMinutesPlayed, "minutes", FactPlayerMatch, "minutes IS NOT NULL"},
}

var kpiTable = storage.TableSpec{Name: GoldKPIs, Columns: []storage.ColumnSpec{
	{Name: "kpi", Type: storage.TypeText},
	{Name: "value", Type: storage.TypeNumber},
}}

// BuildKPIs recreates gold_kpis with one row per KPI. An average over zero
// qualifying rows is NULL.
func BuildKPIs(ctx context.Context, db *storage.DB) error {
	return db.InTx(ctx, func(tx *storage.Tx) error {
		if _, err := tx.ReplaceTable(ctx, kpiTable, nil, 0); err != nil {
			return fmt.Errorf("warehouse: %w", err)
		}
		d := tx.Dialect()
		for _, k := range kpis {
			if _, err := tx.Exec(ctx, kpiInsertSQL(d, k)); err != nil {
				return fmt.Errorf("warehouse: kpi %s: %w", k.name, err)
			}
		}
		return nil
	})
}

func kpiInsertSQL(d storage.Dialect, k kpi) string {
	return fmt.Sprintf("INSERT INTO %s (kpi, value) SELECT '%s', CAST(AVG(%s) AS %s) FROM %s WHERE %s",
		GoldKPIs, k.name, k.expr, d.TypeName(storage.TypeNumber), k.from, k.where)
}
