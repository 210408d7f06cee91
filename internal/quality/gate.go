// Package quality implements the data-quality gate that runs between
// transformation and loading. Validate is pure: it reads frames and returns
// the first violation found, checking in a fixed order.
package quality

import (
	"fmt"
	"strconv"
	"time"

	"footballdw/internal/frame"
	"footballdw/internal/transformer"
)

// SampleSize bounds the offending values carried by an Error.
const SampleSize = 5

// Range is an inclusive numeric interval.
type Range struct {
	Min, Max float64
}

func (r Range) contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Rules parameterizes the gate.
type Rules struct {
	MatchRequired []string
	StatsRequired []string
	// PossessionFields are checked in order against Possession.
	PossessionFields []string
	Possession       Range
	Minutes          Range
}

// DefaultRules returns the football rule set.
func DefaultRules() Rules {
	return Rules{
		MatchRequired:    []string{"match_id", "date", "home_team", "away_team"},
		StatsRequired:    []string{"match_id", "team", "player_id", "player_name", "minutes"},
		PossessionFields: []string{"home_possession_pct", "away_possession_pct"},
		Possession:       Range{Min: 0, Max: 100},
		Minutes:          Range{Min: 0, Max: 130},
	}
}

// Validate runs every check and returns the first failure as *Error, or nil.
//
// Order: required columns, non-empty, match_id not null, match_id unique,
// referential integrity, possession ranges, minutes range, date parseability.
// Range checks skip missing values.
func Validate(matches, stats *frame.Frame, rules Rules) error {
	checks := []func() *Error{
		func() *Error { return checkRequired(matches, stats, rules) },
		func() *Error { return checkNonEmpty(matches, stats) },
		func() *Error { return checkMatchIDNotNull(matches) },
		func() *Error { return checkMatchIDUnique(matches) },
		func() *Error { return checkReferential(matches, stats) },
		func() *Error { return checkPossession(matches, rules) },
		func() *Error { return checkRange(stats, "minutes", rules.Minutes, CheckMinutes) },
		func() *Error { return checkDates(matches) },
	}
	for _, c := range checks {
		if e := c(); e != nil {
			return e
		}
	}
	return nil
}

func checkRequired(matches, stats *frame.Frame, rules Rules) *Error {
	for _, p := range []struct {
		f    *frame.Frame
		cols []string
	}{{matches, rules.MatchRequired}, {stats, rules.StatsRequired}} {
		if missing := p.f.Missing(p.cols); len(missing) > 0 {
			return &Error{
				Kind:    KindSchema,
				Check:   CheckRequiredColumns,
				Entity:  p.f.Name,
				Message: fmt.Sprintf("missing required columns %v", missing),
				Sample:  capSample(missing),
			}
		}
	}
	return nil
}

func checkNonEmpty(matches, stats *frame.Frame) *Error {
	for _, f := range []*frame.Frame{matches, stats} {
		if f.Len() == 0 {
			return &Error{Kind: KindEmpty, Check: CheckNonEmpty, Entity: f.Name, Message: "dataset has no rows"}
		}
	}
	return nil
}

func checkMatchIDNotNull(matches *frame.Frame) *Error {
	idx := matches.Index("match_id")
	var lines sample
	n := 0
	for _, r := range matches.Rows {
		if isNull(r.V[idx]) {
			n++
			lines.add(fmt.Sprintf("line %d", r.Line))
		}
	}
	if n == 0 {
		return nil
	}
	return &Error{
		Kind:    KindIntegrity,
		Check:   CheckMatchIDNotNull,
		Entity:  matches.Name,
		Field:   "match_id",
		Message: fmt.Sprintf("%d rows with null match_id", n),
		Sample:  lines.values,
	}
}

func checkMatchIDUnique(matches *frame.Frame) *Error {
	idx := matches.Index("match_id")
	seen := make(map[string]struct{}, matches.Len())
	var dups sample
	for _, r := range matches.Rows {
		k := key(r.V[idx])
		if _, ok := seen[k]; ok {
			dups.add(k)
			continue
		}
		seen[k] = struct{}{}
	}
	if dups.total == 0 {
		return nil
	}
	return &Error{
		Kind:    KindIntegrity,
		Check:   CheckMatchIDUnique,
		Entity:  matches.Name,
		Field:   "match_id",
		Message: "duplicate match_id values",
		Sample:  dups.values,
	}
}

func checkReferential(matches, stats *frame.Frame) *Error {
	known := make(map[string]struct{}, matches.Len())
	for _, v := range matches.Column("match_id") {
		known[key(v)] = struct{}{}
	}
	var orphans sample
	for _, v := range stats.Column("match_id") {
		if v == nil {
			orphans.add("<null>")
			continue
		}
		if _, ok := known[key(v)]; !ok {
			orphans.add(key(v))
		}
	}
	if orphans.total == 0 {
		return nil
	}
	return &Error{
		Kind:    KindIntegrity,
		Check:   CheckReferential,
		Entity:  stats.Name,
		Field:   "match_id",
		Message: fmt.Sprintf("%d player rows reference unknown match_id", orphans.total),
		Sample:  orphans.values,
	}
}

func checkPossession(matches *frame.Frame, rules Rules) *Error {
	for _, field := range rules.PossessionFields {
		if e := checkRange(matches, field, rules.Possession, CheckPossession); e != nil {
			return e
		}
	}
	return nil
}

// checkRange flags numeric values of field outside rng. Absent columns and
// missing values pass.
func checkRange(f *frame.Frame, field string, rng Range, check string) *Error {
	idx := f.Index(field)
	if idx < 0 {
		return nil
	}
	var bad sample
	for _, r := range f.Rows {
		n, ok := transformer.ParseNumber(r.V[idx])
		if !ok {
			continue
		}
		if !rng.contains(n) {
			bad.add(strconv.FormatFloat(n, 'f', -1, 64))
		}
	}
	if bad.total == 0 {
		return nil
	}
	return &Error{
		Kind:    KindRange,
		Check:   check,
		Entity:  f.Name,
		Field:   field,
		Message: fmt.Sprintf("%d values of %s outside [%g, %g]", bad.total, field, rng.Min, rng.Max),
		Sample:  bad.values,
	}
}

func checkDates(matches *frame.Frame) *Error {
	idx := matches.Index("date")
	idIdx := matches.Index("match_id")
	var bad sample
	for _, r := range matches.Rows {
		if _, ok := r.V[idx].(time.Time); ok {
			continue
		}
		bad.add(key(r.V[idIdx]))
	}
	if bad.total == 0 {
		return nil
	}
	return &Error{
		Kind:    KindParse,
		Check:   CheckDateParse,
		Entity:  matches.Name,
		Field:   "date",
		Message: fmt.Sprintf("%d matches with unparseable date", bad.total),
		Sample:  bad.values,
	}
}

// sample keeps the first SampleSize distinct values and a total count of
// offending occurrences.
type sample struct {
	values []string
	seen   map[string]struct{}
	total  int
}

func (s *sample) add(v string) {
	s.total++
	if len(s.values) >= SampleSize {
		return
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

func capSample(vs []string) []string {
	if len(vs) > SampleSize {
		return vs[:SampleSize]
	}
	return vs
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func key(v any) string {
	switch t := transformer.Text(v).(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
