package quality

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a gate failure.
type Kind int

const (
	KindSchema Kind = iota + 1
	KindEmpty
	KindIntegrity
	KindRange
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "schema"
	case KindEmpty:
		return "empty"
	case KindIntegrity:
		return "integrity"
	case KindRange:
		return "range"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Each *Error matches the sentinel of its Kind.
var (
	ErrSchema    = errors.New("quality: schema violation")
	ErrEmpty     = errors.New("quality: empty dataset")
	ErrIntegrity = errors.New("quality: integrity violation")
	ErrRange     = errors.New("quality: value out of range")
	ErrParse     = errors.New("quality: unparseable value")
)

// Check names, stable for logs and metrics.
const (
	CheckRequiredColumns = "required_columns"
	CheckNonEmpty        = "non_empty"
	CheckMatchIDNotNull  = "match_id_not_null"
	CheckMatchIDUnique   = "match_id_unique"
	CheckReferential     = "referential_integrity"
	CheckPossession      = "possession_range"
	CheckMinutes         = "minutes_range"
	CheckDateParse       = "date_parse"
)

// Error is the single failure reported by Validate.
type Error struct {
	Kind    Kind
	Check   string
	Entity  string // "matches" or "player_stats"
	Field   string
	Message string
	// Sample holds at most SampleSize offending values in first-seen order.
	Sample []string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "quality %s check %s failed", e.Kind, e.Check)
	if e.Entity != "" {
		fmt.Fprintf(&b, " on %s", e.Entity)
		if e.Field != "" {
			fmt.Fprintf(&b, ".%s", e.Field)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Sample) > 0 {
		fmt.Fprintf(&b, " (sample: %s)", strings.Join(e.Sample, ", "))
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrSchema:
		return e.Kind == KindSchema
	case ErrEmpty:
		return e.Kind == KindEmpty
	case ErrIntegrity:
		return e.Kind == KindIntegrity
	case ErrRange:
		return e.Kind == KindRange
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}
