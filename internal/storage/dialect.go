package storage

import (
	"fmt"
	"strings"
	"time"
)

// ColumnType is the logical type of a stored column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeNumber
	TypeDate
	TypeInteger
)

// DatePart names a calendar component extracted from a date column.
type DatePart int

const (
	PartYear DatePart = iota
	PartMonth
	PartDay
	// PartDayOfWeek is 0 for Sunday through 6 for Saturday.
	PartDayOfWeek
)

// Dialect captures the SQL differences between backends. The warehouse SQL
// is otherwise written in the common subset all backends accept.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the 1-based argument n.
	Placeholder(n int) string
	QuoteIdent(id string) string
	TypeName(t ColumnType) string
	// DatePart returns an INTEGER expression for part of the date expr.
	DatePart(part DatePart, expr string) string
	DropTableSQL(name string) string
	DropViewSQL(name string) string
	// BindValue converts a Go value to what the driver stores for it.
	BindValue(v any) any
	// MaxParams is the largest number of bind arguments per statement.
	MaxParams() int
	// RelationExistsSQL takes one bind argument (the name) and returns a count.
	RelationExistsSQL() string
}

// ANSI implements the parts of Dialect shared by every backend. Backends
// embed it and override what differs.
type ANSI struct{}

func (ANSI) Placeholder(int) string { return "?" }

func (ANSI) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (ANSI) DropTableSQL(name string) string { return "DROP TABLE IF EXISTS " + name }

func (ANSI) DropViewSQL(name string) string { return "DROP VIEW IF EXISTS " + name }

func (ANSI) DatePart(part DatePart, expr string) string {
	var field string
	switch part {
	case PartYear:
		field = "YEAR"
	case PartMonth:
		field = "MONTH"
	case PartDay:
		field = "DAY"
	case PartDayOfWeek:
		field = "DOW"
	default:
		panic(fmt.Sprintf("storage: unknown date part %d", part))
	}
	return fmt.Sprintf("CAST(EXTRACT(%s FROM %s) AS INTEGER)", field, expr)
}

func (ANSI) BindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return v
}

func (ANSI) MaxParams() int { return 65535 }

func (ANSI) RelationExistsSQL() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?"
}
