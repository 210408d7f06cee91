package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of ValidatePipeline. Path is the dotted config key.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is fatal.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var storageKinds = map[string]bool{"sqlite": true, "duckdb": true, "postgres": true}

// ValidatePipeline checks a loaded configuration without touching the
// filesystem or the store. Missing input files are reported by the extract
// stage, not here.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(p.Source.Matches.Path) == "" {
		add(SeverityError, "source.matches.path", "must be set")
	}
	if strings.TrimSpace(p.Source.PlayerStats.Path) == "" {
		add(SeverityError, "source.player_stats.path", "must be set")
	}
	checkEncoding := func(path, name string, required bool) {
		if name == "" {
			if required {
				add(SeverityError, path, "must be set")
			}
			return
		}
		if _, err := htmlindex.Get(name); err != nil {
			add(SeverityError, path, "unknown encoding %q", name)
		}
	}
	checkEncoding("source.matches.encoding", p.Source.Matches.Encoding, true)
	checkEncoding("source.matches.fallback_encoding", p.Source.Matches.FallbackEncoding, false)
	checkEncoding("source.player_stats.encoding", p.Source.PlayerStats.Encoding, true)
	if p.Source.PlayerStats.FallbackEncoding != "" {
		add(SeverityWarning, "source.player_stats.fallback_encoding", "ignored; player stats use a single encoding")
	}

	if p.Parser.Kind != "csv" {
		add(SeverityError, "parser.kind", "must be csv, got %q", p.Parser.Kind)
	}
	if p.Parser.Options.Rune("comma", ',') == '"' {
		add(SeverityError, "parser.options.comma", "must not be a quote character")
	}

	if len(p.Transform.DateLayouts) == 0 {
		add(SeverityWarning, "transform.date_layouts", "empty; built-in layouts will be used")
	}

	if !storageKinds[p.Storage.Kind] {
		add(SeverityError, "storage.kind", "unsupported kind %q (want sqlite, duckdb or postgres)", p.Storage.Kind)
	}
	switch dsn := strings.TrimSpace(p.Storage.DSN); {
	case dsn == "":
		add(SeverityError, "storage.dsn", "must be set")
	case dsn == ":memory:" && p.Storage.IsFileStore():
		add(SeverityError, "storage.dsn", "in-memory stores do not survive between stages; use a file path")
	}

	if p.Thresholds.TopPlayers.MinMatches < 0 {
		add(SeverityError, "thresholds.top_players.min_matches", "must be >= 0, got %d", p.Thresholds.TopPlayers.MinMatches)
	}
	if p.Thresholds.TopPlayers.MinAvgMinutes < 0 {
		add(SeverityError, "thresholds.top_players.min_avg_minutes", "must be >= 0, got %g", p.Thresholds.TopPlayers.MinAvgMinutes)
	}
	if p.Thresholds.TeamXG.MinMatches < 0 {
		add(SeverityError, "thresholds.team_xg.min_matches", "must be >= 0, got %d", p.Thresholds.TeamXG.MinMatches)
	}

	if p.Runtime.BatchSize <= 0 {
		add(SeverityWarning, "runtime.batch_size", "non-positive; default batch size will be used")
	}

	switch p.Metrics.Backend {
	case "", "none", "datadog":
	default:
		add(SeverityWarning, "metrics.backend", "unknown backend %q; metrics disabled", p.Metrics.Backend)
	}

	return issues
}
