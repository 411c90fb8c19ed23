package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oxhq/funsql/clause"
	"github.com/oxhq/funsql/internal/quoting"
)

// Serializer renders a clause.Node tree to SQL text for one Dialect. It is
// the single data-driven replacement for the teacher's per-dialect
// baseVisitor subtypes: every dialect difference is a Dialect field, never
// a Go type.
type Serializer struct {
	D Dialect

	vars    []string
	varSeen map[string]int
}

// NewSerializer returns a Serializer for d with empty variable tracking.
func NewSerializer(d Dialect) *Serializer {
	return &Serializer{D: d, varSeen: make(map[string]int)}
}

// Render renders n to SQL and returns the ordered list of bound variable
// names encountered (a name may repeat if referenced more than once).
func Render(n clause.Node, d Dialect) (string, []string) {
	s := NewSerializer(d)
	sql := n.Accept(s)
	return sql, s.vars
}

func (s *Serializer) quote(name string) string {
	return s.D.QuoteIdent(name)
}

func (s *Serializer) qualifiedID(qualifiers []string, name string) string {
	parts := make([]string, 0, len(qualifiers)+1)
	for _, q := range qualifiers {
		parts = append(parts, s.quote(q))
	}
	parts = append(parts, s.quote(name))
	return strings.Join(parts, ".")
}

func (s *Serializer) VisitID(n *clause.ID) string {
	return s.qualifiedID(n.Qualifiers, n.Name)
}

func (s *Serializer) VisitLit(n *clause.Lit) string {
	return s.literalSQL(n.Value)
}

func (s *Serializer) literalSQL(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if s.D.HasBooleanLiterals {
			if x {
				return "TRUE"
			}
			return "FALSE"
		}
		if x {
			return "(1=1)"
		}
		return "(1=0)"
	case string:
		return "'" + quoting.EscapeString(x, s.D.IsBackslashLiteral) + "'"
	case []byte:
		return "'" + quoting.EscapeString(string(x), s.D.IsBackslashLiteral) + "'"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// VisitVar renders a bound variable reference. Named and Numbered styles
// (Postgres's $1, SQL Server's @name) reuse one placeholder per distinct
// variable name, so vars carries each name once; Positional styles (MySQL's
// bare ?) can't distinguish placeholders by position alone, so every
// occurrence appends its own vars entry.
func (s *Serializer) VisitVar(n *clause.Var) string {
	switch s.D.VariableStyle {
	case Named:
		if _, ok := s.varSeen[n.Name]; !ok {
			s.varSeen[n.Name] = len(s.vars) + 1
			s.vars = append(s.vars, n.Name)
		}
		return s.D.VariablePrefix + n.Name
	case Numbered:
		idx, ok := s.varSeen[n.Name]
		if !ok {
			s.vars = append(s.vars, n.Name)
			idx = len(s.vars)
			s.varSeen[n.Name] = idx
		}
		return s.D.VariablePrefix + strconv.Itoa(idx)
	default: // Positional
		s.vars = append(s.vars, n.Name)
		return s.D.VariablePrefix
	}
}

func (s *Serializer) VisitParam(n *clause.Param) string {
	return s.literalSQL(n.Value)
}

func (s *Serializer) VisitAs(n *clause.As) string {
	return n.Arg.Accept(s) + " AS " + s.quote(n.Name)
}

func (s *Serializer) VisitSort(n *clause.Sort) string {
	sql := n.Arg.Accept(s)
	switch n.Dir {
	case clause.SortDesc:
		sql += " DESC"
	default:
		sql += " ASC"
	}
	switch n.Nulls {
	case clause.NullsFirst:
		sql += " NULLS FIRST"
	case clause.NullsLast:
		sql += " NULLS LAST"
	}
	return sql
}

func (s *Serializer) VisitFun(n *clause.Fun) string {
	switch strings.ToLower(n.Name) {
	case "and":
		return s.joinLogical(n.Args, "AND", "(1=1)")
	case "or":
		return s.joinLogical(n.Args, "OR", "(1=0)")
	case "not":
		return "NOT (" + n.Args[0].Accept(s) + ")"
	case "is_null":
		return "(" + n.Args[0].Accept(s) + " IS NULL)"
	case "is_not_null":
		return "(" + n.Args[0].Accept(s) + " IS NOT NULL)"
	case "in":
		return s.renderIn(n, false)
	case "not_in":
		return s.renderIn(n, true)
	case "between":
		return "(" + n.Args[0].Accept(s) + " BETWEEN " + n.Args[1].Accept(s) + " AND " + n.Args[2].Accept(s) + ")"
	case "case":
		return s.renderCase(n)
	case "current_timestamp":
		return "CURRENT_TIMESTAMP"
	case "concat":
		return s.renderConcat(n)
	case "=", "<>", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "%":
		return s.renderInfix(n)
	default:
		validateSQLName(n.Name)
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.Accept(s)
		}
		return strings.ToUpper(n.Name) + "(" + strings.Join(args, ", ") + ")"
	}
}

func (s *Serializer) joinLogical(args []clause.Node, op, identity string) string {
	if len(args) == 0 {
		return identity
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Accept(s)
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

func (s *Serializer) renderInfix(n *clause.Fun) string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Accept(s)
	}
	return "(" + strings.Join(parts, " "+n.Name+" ") + ")"
}

func (s *Serializer) renderIn(n *clause.Fun, negate bool) string {
	lhs := n.Args[0].Accept(s)
	rest := make([]string, len(n.Args)-1)
	for i, a := range n.Args[1:] {
		rest[i] = a.Accept(s)
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	return "(" + lhs + " " + op + " (" + strings.Join(rest, ", ") + "))"
}

func (s *Serializer) renderCase(n *clause.Fun) string {
	var sb strings.Builder
	sb.WriteString("CASE")
	i := 0
	for ; i+1 < len(n.Args); i += 2 {
		sb.WriteString(" WHEN ")
		sb.WriteString(n.Args[i].Accept(s))
		sb.WriteString(" THEN ")
		sb.WriteString(n.Args[i+1].Accept(s))
	}
	if i < len(n.Args) {
		sb.WriteString(" ELSE ")
		sb.WriteString(n.Args[i].Accept(s))
	}
	sb.WriteString(" END")
	return sb.String()
}

func (s *Serializer) renderConcat(n *clause.Fun) string {
	if s.D.ConcatOperator != "" {
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = a.Accept(s)
		}
		return "(" + strings.Join(parts, " "+s.D.ConcatOperator+" ") + ")"
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.Accept(s)
	}
	return "CONCAT(" + strings.Join(args, ", ") + ")"
}

func (s *Serializer) VisitAgg(n *clause.Agg) string {
	validateSQLName(n.Name)
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(n.Name))
	sb.WriteString("(")
	if n.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(n.Args) == 0 {
		sb.WriteString("*")
	} else {
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.Accept(s)
		}
		sb.WriteString(strings.Join(args, ", "))
	}
	sb.WriteString(")")
	if n.Filter != nil {
		sb.WriteString(" FILTER (WHERE ")
		sb.WriteString(n.Filter.Accept(s))
		sb.WriteString(")")
	}
	if n.Over != nil {
		sb.WriteString(" OVER ")
		sb.WriteString(n.Over.Accept(s))
	}
	return sb.String()
}

func (s *Serializer) VisitPartitionOver(n *clause.PartitionOver) string {
	var sb strings.Builder
	sb.WriteString("(")
	wrote := false
	if len(n.By) > 0 {
		parts := make([]string, len(n.By))
		for i, b := range n.By {
			parts[i] = b.Accept(s)
		}
		sb.WriteString("PARTITION BY ")
		sb.WriteString(strings.Join(parts, ", "))
		wrote = true
	}
	if len(n.OrderBy) > 0 {
		if wrote {
			sb.WriteString(" ")
		}
		parts := make([]string, len(n.OrderBy))
		for i, o := range n.OrderBy {
			parts[i] = o.Accept(s)
		}
		sb.WriteString("ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
		wrote = true
	}
	if n.Frame != "" {
		if wrote {
			sb.WriteString(" ")
		}
		sb.WriteString(n.Frame)
	}
	sb.WriteString(")")
	return sb.String()
}

func (s *Serializer) VisitValues(n *clause.Values) string {
	var sb strings.Builder
	sb.WriteString("(VALUES ")
	for i, row := range n.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s.D.ValuesRowConstructor != "" {
			sb.WriteString(s.D.ValuesRowConstructor)
		}
		sb.WriteString("(")
		for j, cell := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(cell.Accept(s))
		}
		sb.WriteString(")")
	}
	sb.WriteString(") AS ")
	sb.WriteString(s.quote(n.Alias))
	sb.WriteString(" (")
	for i, c := range n.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.quote(c))
	}
	sb.WriteString(")")
	return sb.String()
}

func (s *Serializer) VisitFrom(n *clause.From) string {
	if n == nil || n.Source == nil {
		return ""
	}
	return " FROM " + n.Source.Accept(s)
}

func (s *Serializer) VisitJoin(n *clause.Join) string {
	var kw string
	switch n.Kind {
	case clause.LeftJoin:
		kw = "LEFT JOIN"
	case clause.RightJoin:
		kw = "RIGHT JOIN"
	case clause.FullJoin:
		kw = "FULL JOIN"
	case clause.CrossJoin:
		kw = "CROSS JOIN"
	default:
		kw = "JOIN"
	}
	var sb strings.Builder
	sb.WriteString(" ")
	sb.WriteString(kw)
	sb.WriteString(" ")
	if n.Lateral {
		sb.WriteString("LATERAL ")
	}
	sb.WriteString(n.Right.Accept(s))
	if n.Kind != clause.CrossJoin && n.On != nil {
		sb.WriteString(" ON ")
		sb.WriteString(n.On.Accept(s))
	}
	return sb.String()
}

func (s *Serializer) VisitWhere(n *clause.Where) string {
	if n == nil || n.Condition == nil {
		return ""
	}
	return " WHERE " + n.Condition.Accept(s)
}

func (s *Serializer) VisitHaving(n *clause.Having) string {
	if n == nil || n.Condition == nil {
		return ""
	}
	return " HAVING " + n.Condition.Accept(s)
}

func (s *Serializer) VisitGroup(n *clause.Group) string {
	if n == nil || len(n.By) == 0 {
		return ""
	}
	parts := make([]string, len(n.By))
	for i, b := range n.By {
		parts[i] = b.Accept(s)
	}
	if len(n.Sets) == 0 {
		return " GROUP BY " + strings.Join(parts, ", ")
	}
	sets := make([]string, len(n.Sets))
	for i, set := range n.Sets {
		names := make([]string, len(set))
		for j, idx := range set {
			names[j] = parts[idx]
		}
		sets[i] = "(" + strings.Join(names, ", ") + ")"
	}
	return " GROUP BY GROUPING SETS (" + strings.Join(sets, ", ") + ")"
}

func (s *Serializer) VisitWindow(n *clause.Window) string {
	if n == nil || len(n.Defs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(n.Defs))
	for name, def := range n.Defs {
		parts = append(parts, s.quote(name)+" AS "+def.Accept(s))
	}
	return " WINDOW " + strings.Join(parts, ", ")
}

func (s *Serializer) VisitOrder(n *clause.Order) string {
	if n == nil || len(n.By) == 0 {
		return ""
	}
	parts := make([]string, len(n.By))
	for i, o := range n.By {
		parts[i] = o.Accept(s)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (s *Serializer) VisitLimit(n *clause.Limit) string {
	if n == nil || (n.Count == nil && n.Offset == nil) {
		return ""
	}
	switch s.D.LimitStyle {
	case SQLServerLimit:
		var sb strings.Builder
		sb.WriteString(" OFFSET ")
		if n.Offset != nil {
			sb.WriteString(n.Offset.Accept(s))
		} else {
			sb.WriteString("0")
		}
		sb.WriteString(" ROWS")
		if n.Count != nil {
			sb.WriteString(" FETCH NEXT ")
			sb.WriteString(n.Count.Accept(s))
			sb.WriteString(" ROWS ONLY")
		}
		return sb.String()
	case MySQLLimit:
		var sb strings.Builder
		sb.WriteString(" LIMIT ")
		if n.Offset != nil {
			sb.WriteString(n.Offset.Accept(s))
			sb.WriteString(", ")
		}
		if n.Count != nil {
			sb.WriteString(n.Count.Accept(s))
		} else {
			sb.WriteString("18446744073709551615")
		}
		return sb.String()
	case SQLiteLimit:
		var sb strings.Builder
		sb.WriteString(" LIMIT ")
		if n.Count != nil {
			sb.WriteString(n.Count.Accept(s))
		} else {
			sb.WriteString("-1")
		}
		if n.Offset != nil {
			sb.WriteString(" OFFSET ")
			sb.WriteString(n.Offset.Accept(s))
		}
		return sb.String()
	default: // PostgreSQLLimit / DefaultLimit
		var sb strings.Builder
		if n.Count != nil {
			sb.WriteString(" LIMIT ")
			sb.WriteString(n.Count.Accept(s))
		}
		if n.Offset != nil {
			sb.WriteString(" OFFSET ")
			sb.WriteString(n.Offset.Accept(s))
		}
		return sb.String()
	}
}

func (s *Serializer) VisitUnion(n *clause.Union) string {
	parts := make([]string, len(n.Branches))
	for i, b := range n.Branches {
		parts[i] = b.Accept(s)
	}
	return strings.Join(parts, " UNION ALL ")
}

func (s *Serializer) VisitWith(n *clause.With) string {
	var sb strings.Builder
	sb.WriteString("WITH ")
	if n.Recursive && s.D.HasRecursiveAnnotation {
		sb.WriteString("RECURSIVE ")
	}
	parts := make([]string, len(n.Names))
	for i, name := range n.Names {
		parts[i] = s.quote(name) + " AS (" + n.Bodies[i].Accept(s) + ")"
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(" ")
	sb.WriteString(n.Main.Accept(s))
	return sb.String()
}

func (s *Serializer) VisitSelect(n *clause.Select) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if n.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(n.Columns) == 0 {
		sb.WriteString("*")
	} else {
		parts := make([]string, len(n.Columns))
		for i, c := range n.Columns {
			parts[i] = c.Accept(s)
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	if n.From != nil {
		sb.WriteString(n.From.Accept(s))
	}
	for _, j := range n.Joins {
		sb.WriteString(j.Accept(s))
	}
	if n.Where != nil {
		sb.WriteString(n.Where.Accept(s))
	}
	if n.Group != nil {
		sb.WriteString(n.Group.Accept(s))
	}
	if n.Having != nil {
		sb.WriteString(n.Having.Accept(s))
	}
	if n.Window != nil {
		sb.WriteString(n.Window.Accept(s))
	}
	if n.Order != nil {
		sb.WriteString(n.Order.Accept(s))
	}
	if n.Limit != nil {
		sb.WriteString(n.Limit.Accept(s))
	}
	return sb.String()
}

// validateSQLName panics if name contains characters outside the set of
// letters, digits, and underscores — guards against SQL injection through
// a crafted function/aggregate name, mirroring the teacher's
// validateSQLFunctionName.
func validateSQLName(name string) {
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
			(c < '0' || c > '9') && c != '_' {
			panic(fmt.Sprintf("funsql: invalid SQL function name character %q in %q", string(c), name))
		}
	}
}
