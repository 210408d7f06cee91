// Package report reads the gold layer back for humans: the KPI table and the
// business views, rendered as text tables.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"footballdw/internal/storage"
	"footballdw/internal/warehouse"
)

// DefaultLimit is the number of view rows shown when no limit is given.
const DefaultLimit = 10

// KPI is one row of gold_kpis. Value is nil when no rows qualified.
type KPI struct {
	Name  string
	Value *float64
}

// Table is a titled query result.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]any
}

// Section pairs a view with its report heading.
type Section struct {
	Title string
	View  string
}

// Sections are the views printed by the report command, in order.
var Sections = []Section{
	{"TOP PLAYERS BY RATING", warehouse.VwTopPlayersRating},
	{"TEAMS: GOALS VS xG", warehouse.VwTeamGoalsVsXG},
	{"LEAGUE TABLE (POINTS)", warehouse.VwLeagueTablePoints},
	{"WIN DRIVERS (DELTAS)", warehouse.VwWinDriversDeltas},
	{"DEFENSIVE INTENSITY BY TEAM", warehouse.VwTeamDefensiveIntensity},
}

// KPIs returns gold_kpis ordered by name.
func KPIs(ctx context.Context, db *storage.DB) ([]KPI, error) {
	res, err := db.Query(ctx, "SELECT kpi, value FROM "+warehouse.GoldKPIs+" ORDER BY kpi")
	if err != nil {
		return nil, fmt.Errorf("report: kpis: %w", err)
	}
	out := make([]KPI, 0, len(res.Rows))
	for _, r := range res.Rows {
		k := KPI{Name: fmt.Sprint(r[0])}
		if v, ok := toFloat(r[1]); ok {
			k.Value = &v
		}
		out = append(out, k)
	}
	return out, nil
}

// KPITable renders KPIs as a Table.
func KPITable(kpis []KPI) Table {
	t := Table{Title: "GOLD KPIs", Columns: []string{"kpi", "value"}}
	for _, k := range kpis {
		var v any
		if k.Value != nil {
			v = *k.Value
		}
		t.Rows = append(t.Rows, []any{k.Name, v})
	}
	return t
}

// View returns the first limit rows of a business view in its own order.
// limit <= 0 means DefaultLimit. Only the known views can be read.
func View(ctx context.Context, db *storage.DB, name string, limit int) (Table, error) {
	title := ""
	for _, s := range Sections {
		if s.View == name {
			title = s.Title
		}
	}
	if title == "" {
		return Table{}, fmt.Errorf("report: unknown view %q", name)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	res, err := db.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", name, limit))
	if err != nil {
		return Table{}, fmt.Errorf("report: %s: %w", name, err)
	}
	return Table{Title: title, Columns: res.Columns, Rows: res.Rows}, nil
}

// Render writes t as a boxed text table followed by its row count.
func Render(w io.Writer, t Table) error {
	if t.Title != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", t.Title); err != nil {
			return err
		}
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = formatValue(v)
		}
		tw.AppendRow(row)
	}
	tw.Render()
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(t.Rows))
	return err
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatFloat(x, 'f', 0, 64)
		}
		return strconv.FormatFloat(x, 'f', 3, 64)
	case float32:
		return formatValue(float64(x))
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
