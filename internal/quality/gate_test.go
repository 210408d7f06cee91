package quality

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"footballdw/internal/frame"
)

var d1 = time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC)

func matchesFrame(rows ...[]any) *frame.Frame {
	f := frame.New("matches", []string{"match_id", "date", "home_team", "away_team", "home_possession_pct", "away_possession_pct"})
	for i, r := range rows {
		_ = f.Append(i+2, r...)
	}
	return f
}

func statsFrame(rows ...[]any) *frame.Frame {
	f := frame.New("player_stats", []string{"match_id", "team", "player_id", "player_name", "minutes"})
	for i, r := range rows {
		_ = f.Append(i+2, r...)
	}
	return f
}

func validMatches() *frame.Frame {
	return matchesFrame(
		[]any{"M1", d1, "Ajax", "PSV", 55.0, 45.0},
		[]any{"M2", d1, "PSV", "AZ", nil, nil},
	)
}

func validStats() *frame.Frame {
	return statsFrame(
		[]any{"M1", "Ajax", "P1", "Jan", 90.0},
		[]any{"M2", "AZ", "P2", "Piet", nil},
	)
}

func asGateError(t *testing.T, err error) *Error {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err=%v want *quality.Error", err)
	}
	return e
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()
	if err := Validate(validMatches(), validStats(), DefaultRules()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		matches    *frame.Frame
		stats      *frame.Frame
		wantKind   Kind
		wantCheck  string
		wantField  string
		wantSample []string
		sentinel   error
	}{
		{
			name:       "missing_match_column",
			matches:    frame.New("matches", []string{"match_id", "home_team"}),
			stats:      validStats(),
			wantKind:   KindSchema,
			wantCheck:  CheckRequiredColumns,
			wantSample: []string{"date", "away_team"},
			sentinel:   ErrSchema,
		},
		{
			name:       "missing_stats_column",
			matches:    validMatches(),
			stats:      frame.New("player_stats", []string{"match_id", "team", "player_id", "player_name"}),
			wantKind:   KindSchema,
			wantCheck:  CheckRequiredColumns,
			wantSample: []string{"minutes"},
			sentinel:   ErrSchema,
		},
		{
			name:      "empty_matches",
			matches:   matchesFrame(),
			stats:     validStats(),
			wantKind:  KindEmpty,
			wantCheck: CheckNonEmpty,
			sentinel:  ErrEmpty,
		},
		{
			name:      "empty_stats",
			matches:   validMatches(),
			stats:     statsFrame(),
			wantKind:  KindEmpty,
			wantCheck: CheckNonEmpty,
			sentinel:  ErrEmpty,
		},
		{
			name:       "null_match_id",
			matches:    matchesFrame([]any{nil, d1, "A", "B", nil, nil}, []any{"M1", d1, "A", "B", nil, nil}),
			stats:      validStats(),
			wantKind:   KindIntegrity,
			wantCheck:  CheckMatchIDNotNull,
			wantField:  "match_id",
			wantSample: []string{"line 2"},
			sentinel:   ErrIntegrity,
		},
		{
			name: "duplicate_before_fk",
			matches: matchesFrame(
				[]any{"M1", d1, "A", "B", nil, nil},
				[]any{"M1", d1, "A", "B", nil, nil},
				[]any{"M1", d1, "A", "B", nil, nil},
			),
			stats:      statsFrame([]any{"M9", "A", "P", "N", 90.0}),
			wantKind:   KindIntegrity,
			wantCheck:  CheckMatchIDUnique,
			wantField:  "match_id",
			wantSample: []string{"M1"},
			sentinel:   ErrIntegrity,
		},
		{
			name:       "fk_missing_match",
			matches:    validMatches(),
			stats:      statsFrame([]any{"M1", "A", "P", "N", 90.0}, []any{"M9", "A", "P", "N", 90.0}, []any{nil, "A", "P", "N", 90.0}),
			wantKind:   KindIntegrity,
			wantCheck:  CheckReferential,
			wantField:  "match_id",
			wantSample: []string{"M9", "<null>"},
			sentinel:   ErrIntegrity,
		},
		{
			name:       "home_possession_before_minutes",
			matches:    matchesFrame([]any{"M1", d1, "A", "B", 150.0, -1.0}, []any{"M2", d1, "A", "B", 50.0, 50.0}),
			stats:      statsFrame([]any{"M1", "A", "P", "N", 200.0}),
			wantKind:   KindRange,
			wantCheck:  CheckPossession,
			wantField:  "home_possession_pct",
			wantSample: []string{"150"},
			sentinel:   ErrRange,
		},
		{
			name:       "away_possession",
			matches:    matchesFrame([]any{"M1", d1, "A", "B", 100.0, 100.5}),
			stats:      statsFrame([]any{"M1", "A", "P", "N", 0.0}),
			wantKind:   KindRange,
			wantCheck:  CheckPossession,
			wantField:  "away_possession_pct",
			wantSample: []string{"100.5"},
			sentinel:   ErrRange,
		},
		{
			name:       "minutes",
			matches:    validMatches(),
			stats:      statsFrame([]any{"M1", "A", "P", "N", 131.0}, []any{"M1", "A", "P2", "N2", 130.0}),
			wantKind:   KindRange,
			wantCheck:  CheckMinutes,
			wantField:  "minutes",
			wantSample: []string{"131"},
			sentinel:   ErrRange,
		},
		{
			name:       "unparsed_date",
			matches:    matchesFrame([]any{"M1", nil, "A", "B", nil, nil}, []any{"M2", "2024-13-01", "A", "B", nil, nil}),
			stats:      statsFrame([]any{"M1", "A", "P", "N", 90.0}),
			wantKind:   KindParse,
			wantCheck:  CheckDateParse,
			wantField:  "date",
			wantSample: []string{"M1", "M2"},
			sentinel:   ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.matches, tt.stats, DefaultRules())
			e := asGateError(t, err)
			if e.Kind != tt.wantKind || e.Check != tt.wantCheck {
				t.Fatalf("got kind=%s check=%s want kind=%s check=%s (%v)", e.Kind, e.Check, tt.wantKind, tt.wantCheck, err)
			}
			if tt.wantField != "" && e.Field != tt.wantField {
				t.Fatalf("field got=%q want=%q", e.Field, tt.wantField)
			}
			if tt.wantSample != nil && !reflect.DeepEqual(e.Sample, tt.wantSample) {
				t.Fatalf("sample got=%v want=%v", e.Sample, tt.wantSample)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
		})
	}
}

func TestValidate_SampleBounded(t *testing.T) {
	t.Parallel()

	var rows [][]any
	for _, id := range []string{"X1", "X2", "X3", "X4", "X5", "X6", "X7"} {
		rows = append(rows, []any{id, "A", "P", "N", 90.0})
	}
	err := Validate(validMatches(), statsFrame(rows...), DefaultRules())
	e := asGateError(t, err)
	if want := []string{"X1", "X2", "X3", "X4", "X5"}; !reflect.DeepEqual(e.Sample, want) {
		t.Fatalf("sample got=%v want=%v", e.Sample, want)
	}
	if !strings.Contains(e.Error(), "7 player rows") {
		t.Fatalf("message should carry the total: %v", e)
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	e := &Error{Kind: KindRange, Check: CheckPossession, Entity: "matches", Field: "home_possession_pct", Message: "bad", Sample: []string{"150"}}
	want := "quality range check possession_range failed on matches.home_possession_pct: bad (sample: 150)"
	if e.Error() != want {
		t.Fatalf("got=%q want=%q", e.Error(), want)
	}
	if errors.Is(e, ErrSchema) {
		t.Fatalf("range error must not match ErrSchema")
	}
}
