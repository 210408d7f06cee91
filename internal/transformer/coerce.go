package transformer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"footballdw/internal/frame"
	"footballdw/internal/transformer/builtin"
)

// Transform retypes both inputs. The inputs are not modified.
func Transform(matches, stats *frame.Frame, layouts []string) (*frame.Frame, *frame.Frame) {
	return Coerce(matches, MatchSpec, layouts), Coerce(stats, StatsSpec, layouts)
}

// Coerce returns a retyped copy of f according to spec.
func Coerce(f *frame.Frame, spec Spec, layouts []string) *frame.Frame {
	out := f.Clone()
	out.RenameColumns(NormalizeName)

	type plan struct {
		idx  int
		kind Kind
	}
	var plans []plan
	add := func(cols []string, k Kind) {
		for _, c := range cols {
			if i := out.Index(c); i >= 0 {
				plans = append(plans, plan{idx: i, kind: k})
			}
		}
	}
	add(spec.Dates, KindDate)
	add(spec.Numbers, KindNumber)
	add(spec.Texts, KindText)

	for _, r := range out.Rows {
		for _, p := range plans {
			v := r.V[p.idx]
			switch p.kind {
			case KindDate:
				if t, ok := ParseDate(v, layouts); ok {
					r.V[p.idx] = t
				} else {
					r.V[p.idx] = nil
				}
			case KindNumber:
				if n, ok := ParseNumber(v); ok {
					r.V[p.idx] = n
				} else {
					r.V[p.idx] = nil
				}
			case KindText:
				r.V[p.idx] = Text(v)
			}
		}
	}
	return out
}

// NormalizeName strips surrounding whitespace and a byte-order mark.
func NormalizeName(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	if builtin.HasEdgeSpace(s) {
		s = strings.TrimSpace(s)
	}
	return s
}

// ParseNumber converts v to a finite float64. NaN and infinities are
// treated as missing.
func ParseNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		n = t
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParseDate converts v to a calendar date at UTC midnight using the first
// matching layout. An empty layout list falls back to ISO dates only.
func ParseDate(v any, layouts []string) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return toDate(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if len(layouts) == 0 {
			layouts = []string{time.DateOnly}
		}
		for _, layout := range layouts {
			if p, err := time.Parse(layout, s); err == nil {
				return toDate(p), true
			}
		}
	}
	return time.Time{}, false
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Text trims string values. Numbers become their shortest decimal form so a
// numeric-looking key read as a number still joins as text.
func Text(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if builtin.HasEdgeSpace(t) {
			t = strings.TrimSpace(t)
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return v
	}
}
