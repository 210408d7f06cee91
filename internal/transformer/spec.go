// Package transformer retypes raw frames: names are trimmed, dates and
// numbers are parsed with coerce semantics (bad input becomes nil), and text
// columns are trimmed. Rows and columns are never dropped.
package transformer

// Kind is the logical type of a column after transformation.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Spec lists the typed columns of one entity. Columns not listed are left as
// read and treated as text downstream.
type Spec struct {
	Name    string
	Dates   []string
	Numbers []string
	Texts   []string
}

// MatchSpec describes the match file.
var MatchSpec = Spec{
	Name:  "matches",
	Dates: []string{"date"},
	Numbers: []string{
		"home_goals", "away_goals",
		"home_shots", "away_shots",
		"home_xG", "away_xG",
		"home_possession_pct", "away_possession_pct",
		"attendance",
	},
	Texts: []string{"home_team", "away_team", "stadium", "league", "season", "referee", "match_id"},
}

// StatsSpec describes the player-stat file.
var StatsSpec = Spec{
	Name: "player_stats",
	Numbers: []string{
		"minutes", "shots", "goals", "assists", "passes",
		"pass_accuracy_pct", "tackles", "interceptions", "fouls_committed", "rating",
	},
	Texts: []string{"team", "player_id", "player_name", "position", "card", "match_id"},
}

// KindOf returns the declared kind of col.
func (s Spec) KindOf(col string) Kind {
	for _, c := range s.Dates {
		if c == col {
			return KindDate
		}
	}
	for _, c := range s.Numbers {
		if c == col {
			return KindNumber
		}
	}
	return KindText
}

// Columns returns every declared column, in text, number, date order.
func (s Spec) Columns() []string {
	out := make([]string, 0, len(s.Texts)+len(s.Numbers)+len(s.Dates))
	out = append(out, s.Texts...)
	out = append(out, s.Numbers...)
	out = append(out, s.Dates...)
	return out
}
