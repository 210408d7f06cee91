package builtin

import (
	"strings"
	"testing"
	"time"
)

func digestOf(rows ...[]any) string {
	d := NewDigest()
	for _, r := range rows {
		d.Add(r)
	}
	return d.Sum()
}

func TestDigest_Deterministic(t *testing.T) {
	t.Parallel()

	a := digestOf([]any{"Ajax", int64(1)}, []any{"PSV", nil})
	b := digestOf([]any{"Ajax", int64(1)}, []any{"PSV", nil})
	if a != b {
		t.Fatalf("same rows produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest length=%d want 64", len(a))
	}
}

func TestDigest_Distinguishes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b [][]any
	}{
		{name: "nil_vs_empty", a: [][]any{{nil}}, b: [][]any{{""}}},
		{name: "row_order", a: [][]any{{"a"}, {"b"}}, b: [][]any{{"b"}, {"a"}}},
		{name: "row_boundary", a: [][]any{{"a", "b"}}, b: [][]any{{"a"}, {"b"}}},
		{name: "value", a: [][]any{{1.5}}, b: [][]any{{1.25}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if digestOf(tt.a...) == digestOf(tt.b...) {
				t.Fatalf("digests collide for %v and %v", tt.a, tt.b)
			}
		})
	}
}

func TestAppendCanonicalValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "\x00"},
		{name: "string", in: " x ", want: " x "},
		{name: "bytes", in: []byte("ab"), want: "ab"},
		{name: "bool", in: true, want: "true"},
		{name: "int64", in: int64(-7), want: "-7"},
		{name: "int32", in: int32(3), want: "3"},
		{name: "whole_float_like_int", in: 3.0, want: "3"},
		{name: "float", in: 2.5, want: "2.5"},
		{name: "time_utc", in: time.Date(2024, 8, 17, 1, 0, 0, 0, time.FixedZone("X", 3600)), want: "2024-08-17T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			AppendCanonicalValue(&b, tt.in)
			if got := b.String(); got != tt.want {
				t.Fatalf("got=%q want=%q", got, tt.want)
			}
		})
	}
}
