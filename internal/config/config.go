// Package config defines the pipeline configuration and how it is loaded.
package config

import "time"

// Pipeline is the full runtime configuration of one footballdw run.
type Pipeline struct {
	Job        string        `koanf:"job"`
	Source     Source        `koanf:"source"`
	Parser     Parser        `koanf:"parser"`
	Transform  Transform     `koanf:"transform"`
	Storage    Storage       `koanf:"storage"`
	Thresholds Thresholds    `koanf:"thresholds"`
	Runtime    RuntimeConfig `koanf:"runtime"`
	Log        Log           `koanf:"log"`
	Metrics    Metrics       `koanf:"metrics"`
}

type Source struct {
	Matches     FileSource `koanf:"matches"`
	PlayerStats FileSource `koanf:"player_stats"`
}

// FileSource points at one delimited input file. FallbackEncoding is only
// consulted when decoding with Encoding fails.
type FileSource struct {
	Path             string `koanf:"path"`
	Encoding         string `koanf:"encoding"`
	FallbackEncoding string `koanf:"fallback_encoding"`
}

type Parser struct {
	Kind    string  `koanf:"kind"`
	Options Options `koanf:"options"`
}

type Transform struct {
	// DateLayouts are tried in order when coercing the match date.
	DateLayouts []string `koanf:"date_layouts"`
}

type Storage struct {
	// Kind: "sqlite" | "duckdb" | "postgres"
	Kind string `koanf:"kind"`
	DSN  string `koanf:"dsn"`
}

// Thresholds are the minimum-sample filters applied by the reporting views.
type Thresholds struct {
	TopPlayers TopPlayers `koanf:"top_players"`
	TeamXG     TeamXG     `koanf:"team_xg"`
}

type TopPlayers struct {
	MinMatches    int     `koanf:"min_matches"`
	MinAvgMinutes float64 `koanf:"min_avg_minutes"`
}

type TeamXG struct {
	MinMatches int `koanf:"min_matches"`
}

// RuntimeConfig controls load behavior.
type RuntimeConfig struct {
	// BatchSize is the number of staging rows per INSERT statement. Backends
	// lower it further when the bind-parameter limit would be exceeded.
	BatchSize int `koanf:"batch_size"`
}

type Log struct {
	File    string `koanf:"file"`
	Verbose bool   `koanf:"verbose"`
}

type Metrics struct {
	// Backend: "none" | "datadog"
	Backend    string        `koanf:"backend"`
	Tags       string        `koanf:"tags"`
	FlushEvery time.Duration `koanf:"flush_every"`
}

// DefaultDateLayouts covers ISO dates and timestamps, compact and slashed
// year-first dates, and the forms seen in hand-maintained spreadsheets.
// Ambiguous slash dates are read month-first; day-first only matches when
// month-first cannot.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006/01/02",
	"20060102",
	"01/02/2006",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
}

// Defaults returns the flattened default keys fed to the loader.
func Defaults() map[string]any {
	return map[string]any{
		"job":                              "football_dw",
		"source.matches.path":              "data/bronze/futbol_matches.csv",
		"source.matches.encoding":          "utf-8",
		"source.matches.fallback_encoding": "latin1",
		"source.player_stats.path":         "data/bronze/futbol_player_stats.csv",
		"source.player_stats.encoding":     "utf-8",
		"parser.kind":                      "csv",
		"parser.options": map[string]any{
			"comma":       ",",
			"trim_space":  false,
			"lazy_quotes": false,
		},
		"transform.date_layouts":                 append([]string(nil), DefaultDateLayouts...),
		"storage.kind":                           "sqlite",
		"storage.dsn":                            "data/gold/football_dw.sqlite",
		"thresholds.top_players.min_matches":     3,
		"thresholds.top_players.min_avg_minutes": 60.0,
		"thresholds.team_xg.min_matches":         1,
		"runtime.batch_size":                     500,
		"log.file":                               "logs/pipeline.log",
		"log.verbose":                            false,
		"metrics.backend":                        "none",
		"metrics.tags":                           "",
		"metrics.flush_every":                    "60s",
	}
}

// IsFileStore reports whether the storage DSN is a local file path.
func (s Storage) IsFileStore() bool {
	return s.Kind == "sqlite" || s.Kind == "duckdb"
}
