package frame

import (
	"reflect"
	"strings"
	"testing"
)

func TestFrame_AppendIndexColumn(t *testing.T) {
	t.Parallel()

	f := New("matches", []string{"match_id", "home_team", "away_team"})
	if err := f.Append(2, "M1", "Ajax", "PSV"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append(3, "M2"); err != nil {
		t.Fatalf("Append short row: %v", err)
	}
	if err := f.Append(4, "M3", "a", "b", "extra"); err == nil {
		t.Fatalf("expected error for long row")
	}

	if f.Len() != 2 {
		t.Fatalf("Len=%d want 2", f.Len())
	}
	if got := f.Index("away_team"); got != 2 {
		t.Fatalf("Index(away_team)=%d want 2", got)
	}
	if got := f.Index("nope"); got != -1 {
		t.Fatalf("Index(nope)=%d want -1", got)
	}
	if got := f.Column("home_team"); !reflect.DeepEqual(got, []any{"Ajax", nil}) {
		t.Fatalf("Column(home_team)=%v", got)
	}
	if f.Column("nope") != nil {
		t.Fatalf("Column on absent col must be nil")
	}
	if got := f.Rows[0].V[f.Index("match_id")]; got != "M1" {
		t.Fatalf("match_id=%v want M1", got)
	}
	if got := f.Missing([]string{"date", "match_id", "minutes"}); !reflect.DeepEqual(got, []string{"date", "minutes"}) {
		t.Fatalf("Missing=%v", got)
	}
	if f.Rows[1].Line != 3 {
		t.Fatalf("Line=%d want 3", f.Rows[1].Line)
	}
}

func TestFrame_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	f := New("s", []string{" a ", "b"})
	_ = f.Append(2, "x", "y")

	c := f.Clone()
	c.Rows[0].V[0] = "changed"
	c.RenameColumns(strings.TrimSpace)

	if f.Rows[0].V[0] != "x" {
		t.Fatalf("clone shares row storage")
	}
	if f.Columns[0] != " a " {
		t.Fatalf("clone shares column storage")
	}
	if c.Index("a") != 0 {
		t.Fatalf("rename did not reset index")
	}
}

func TestFrame_DuplicateColumnsFirstWins(t *testing.T) {
	t.Parallel()

	f := New("d", []string{"x", "x"})
	if f.Index("x") != 0 {
		t.Fatalf("Index(x)=%d want 0", f.Index("x"))
	}
}
