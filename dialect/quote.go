package dialect

import "github.com/oxhq/funsql/internal/quoting"

func doubleQuote(s string) string   { return quoting.DoubleQuote(s) }
func backtickQuote(s string) string { return quoting.Backtick(s) }
func bracketQuote(s string) string  { return quoting.Bracket(s) }
