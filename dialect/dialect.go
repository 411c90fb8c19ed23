// Package dialect parameterizes SQL rendering over the handful of knobs
// that actually vary between Postgres/MySQL/SQLite/SQL Server, grounded on
// the teacher's baseVisitor fields (quoteIdent, placeholder, parameterize)
// generalized from "one Go type per dialect" to "one Dialect value, one
// Serializer" — FunSQL's four dialects differ only in knob values, never
// in clause shape.
package dialect

// VariableStyle controls how a bind variable is rendered.
type VariableStyle int

const (
	Named VariableStyle = iota
	Numbered
	Positional
)

// LimitStyle controls how LIMIT/OFFSET is rendered.
type LimitStyle int

const (
	DefaultLimit LimitStyle = iota
	MySQLLimit
	PostgreSQLLimit
	SQLiteLimit
	SQLServerLimit
)

// Dialect is an immutable bundle of rendering knobs, per SPEC_FULL.md §11.
type Dialect struct {
	Name string

	VariableStyle  VariableStyle
	VariablePrefix string

	IdentifierOpen  string
	IdentifierClose string
	QuoteIdent      func(string) string

	HasBooleanLiterals bool
	IsBackslashLiteral bool

	LimitStyle LimitStyle

	ConcatOperator string // "" means use concat(...) instead of an infix operator

	HasRecursiveAnnotation bool
	HasAsColumns           bool
	HasImplicitLateral     bool

	ValuesRowConstructor string // "" means no special row constructor keyword
	ValuesColumnPrefix   string
	ValuesColumnIndex    int
}

var Postgres = Dialect{
	Name:                   "postgresql",
	VariableStyle:          Numbered,
	VariablePrefix:         "$",
	IdentifierOpen:         `"`,
	IdentifierClose:        `"`,
	QuoteIdent:             doubleQuote,
	HasBooleanLiterals:     true,
	IsBackslashLiteral:     false,
	LimitStyle:             PostgreSQLLimit,
	ConcatOperator:         "||",
	HasRecursiveAnnotation: true,
	HasAsColumns:           true,
	HasImplicitLateral:     false,
	ValuesRowConstructor:   "",
	ValuesColumnPrefix:     "column",
	ValuesColumnIndex:      1,
}

var MySQL = Dialect{
	Name:                   "mysql",
	VariableStyle:          Positional,
	VariablePrefix:         "?",
	IdentifierOpen:         "`",
	IdentifierClose:        "`",
	QuoteIdent:             backtickQuote,
	HasBooleanLiterals:     false,
	IsBackslashLiteral:     false,
	LimitStyle:             MySQLLimit,
	ConcatOperator:         "",
	HasRecursiveAnnotation: true,
	HasAsColumns:           false,
	HasImplicitLateral:     true,
	ValuesRowConstructor:   "ROW",
	ValuesColumnPrefix:     "column_",
	ValuesColumnIndex:      0,
}

var SQLite = Dialect{
	Name:                   "sqlite",
	VariableStyle:          Numbered,
	VariablePrefix:         "?",
	IdentifierOpen:         `"`,
	IdentifierClose:        `"`,
	QuoteIdent:             doubleQuote,
	HasBooleanLiterals:     false,
	IsBackslashLiteral:     true,
	LimitStyle:             SQLiteLimit,
	ConcatOperator:         "||",
	HasRecursiveAnnotation: true,
	HasAsColumns:           true,
	HasImplicitLateral:     false,
	ValuesRowConstructor:   "",
	ValuesColumnPrefix:     "column",
	ValuesColumnIndex:      1,
}

var SQLServer = Dialect{
	Name:                   "sqlserver",
	VariableStyle:          Named,
	VariablePrefix:         "@",
	IdentifierOpen:         "[",
	IdentifierClose:        "]",
	QuoteIdent:             bracketQuote,
	HasBooleanLiterals:     false,
	IsBackslashLiteral:     true,
	LimitStyle:             SQLServerLimit,
	ConcatOperator:         "+",
	HasRecursiveAnnotation: false,
	HasAsColumns:           true,
	HasImplicitLateral:     false,
	ValuesRowConstructor:   "",
	ValuesColumnPrefix:     "column",
	ValuesColumnIndex:      1,
}

// ByName looks up one of the four preconfigured dialects by its Name
// field; used by catalog.Reflect to pick a dialect from a driver name.
func ByName(name string) (Dialect, bool) {
	switch name {
	case Postgres.Name:
		return Postgres, true
	case MySQL.Name:
		return MySQL, true
	case SQLite.Name:
		return SQLite, true
	case SQLServer.Name:
		return SQLServer, true
	default:
		return Dialect{}, false
	}
}
