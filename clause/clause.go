// Package clause implements the SQL syntax-level intermediate
// representation that compile.Translate assembles and dialect.Serializer
// renders. It mirrors the shape of SQL grammar (SELECT/FROM/JOIN/WHERE/...)
// the way the teacher's nodes package mirrors a relational AST, keeping the
// same Accept(Visitor) string double-dispatch idiom.
package clause

// Node is implemented by every clause value. Accept dispatches to the
// matching Visitor method, exactly as nodes.Node does in the teacher.
type Node interface {
	Accept(v Visitor) string
}

// Visitor is implemented by a renderer (dialect.Serializer is the only
// production implementation) capable of turning every clause kind into
// SQL text.
type Visitor interface {
	VisitSelect(n *Select) string
	VisitFrom(n *From) string
	VisitJoin(n *Join) string
	VisitWhere(n *Where) string
	VisitGroup(n *Group) string
	VisitHaving(n *Having) string
	VisitOrder(n *Order) string
	VisitLimit(n *Limit) string
	VisitWindow(n *Window) string
	VisitUnion(n *Union) string
	VisitWith(n *With) string
	VisitID(n *ID) string
	VisitLit(n *Lit) string
	VisitFun(n *Fun) string
	VisitAgg(n *Agg) string
	VisitPartitionOver(n *PartitionOver) string
	VisitSort(n *Sort) string
	VisitAs(n *As) string
	VisitVar(n *Var) string
	VisitParam(n *Param) string
	VisitValues(n *Values) string
}

// ID is an identifier, optionally qualified (schema.table.column), quoted
// per-dialect by the serializer.
type ID struct {
	Qualifiers []string
	Name       string
}

func (n *ID) Accept(v Visitor) string { return v.VisitID(n) }

// Lit is a literal value, rendered per-dialect (booleans, strings, NULL).
type Lit struct {
	Value any
}

func (n *Lit) Accept(v Visitor) string { return v.VisitLit(n) }

// Var is a named bind variable; the serializer both renders its
// placeholder and appends its name to the ordered variable list.
type Var struct {
	Name string
}

func (n *Var) Accept(v Visitor) string { return v.VisitVar(n) }

// Param is a positional bind placeholder carrying its already-resolved
// value (used for Bind-pushed arguments, as distinct from a host-named
// Var).
type Param struct {
	Value any
}

func (n *Param) Accept(v Visitor) string { return v.VisitParam(n) }

// Fun calls a named function with arguments; the serializer special-cases
// well-known names (count, in, is null, case, between, ...) and falls back
// to NAME(args...) for anything else.
type Fun struct {
	Name string
	Args []Node
}

func (n *Fun) Accept(v Visitor) string { return v.VisitFun(n) }

// Agg calls an aggregate/window function.
type Agg struct {
	Name     string
	Args     []Node
	Distinct bool
	Filter   Node
	Over     *PartitionOver // nil for a plain GROUP BY aggregate
}

func (n *Agg) Accept(v Visitor) string { return v.VisitAgg(n) }

// PartitionOver is the OVER (...) clause attached to a window Agg.
type PartitionOver struct {
	By      []Node
	OrderBy []*Sort
	Frame   string // pre-rendered frame text, or "" for none
}

func (n *PartitionOver) Accept(v Visitor) string { return v.VisitPartitionOver(n) }

type SortDir int

const (
	SortAsc SortDir = iota
	SortDesc
)

type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// Sort wraps an expression with its ordering direction.
type Sort struct {
	Arg   Node
	Dir   SortDir
	Nulls NullsOrder
}

func (n *Sort) Accept(v Visitor) string { return v.VisitSort(n) }

// As names an expression's output column (SELECT ...) or a table/subquery
// (FROM ... AS alias).
type As struct {
	Arg  Node
	Name string
}

func (n *As) Accept(v Visitor) string { return v.VisitAs(n) }

// Values is an inline row-constructor list (VALUES (...), (...), ...),
// rendered per-dialect (ROW(...) vs bare parens, column aliasing style).
// Alias names the derived table so its columns can be referenced elsewhere
// in the SELECT.
type Values struct {
	Rows    [][]Node
	Columns []string
	Alias   string
}

func (n *Values) Accept(v Visitor) string { return v.VisitValues(n) }

// From is the FROM clause of a SELECT.
type From struct {
	Source Node // *ID, *Select (subquery), *Values, or *As wrapping any of these
}

func (n *From) Accept(v Visitor) string { return v.VisitFrom(n) }

type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

// Join is one JOIN entry attached to a Select's FROM.
type Join struct {
	Kind    JoinKind
	Right   Node // *ID, *Select, or *As wrapping either
	On      Node
	Lateral bool
}

func (n *Join) Accept(v Visitor) string { return v.VisitJoin(n) }

// Where holds a WHERE condition.
type Where struct {
	Condition Node
}

func (n *Where) Accept(v Visitor) string { return v.VisitWhere(n) }

// Having holds a HAVING condition (post-aggregation filter).
type Having struct {
	Condition Node
}

func (n *Having) Accept(v Visitor) string { return v.VisitHaving(n) }

// Group holds a GROUP BY list, with optional multi-set grouping (ROLLUP,
// CUBE, GROUPING SETS rendered by the serializer from Sets).
type Group struct {
	By   []Node
	Sets [][]int
}

func (n *Group) Accept(v Visitor) string { return v.VisitGroup(n) }

// Window holds the named WINDOW definitions of a SELECT.
type Window struct {
	Defs map[string]*PartitionOver
}

func (n *Window) Accept(v Visitor) string { return v.VisitWindow(n) }

// Order holds an ORDER BY list.
type Order struct {
	By []*Sort
}

func (n *Order) Accept(v Visitor) string { return v.VisitOrder(n) }

// Limit holds LIMIT/OFFSET values (pre-serializer; dialect-specific
// syntax is chosen by the serializer).
type Limit struct {
	Offset Node
	Count  Node
}

func (n *Limit) Accept(v Visitor) string { return v.VisitLimit(n) }

// Union is a UNION ALL of two or more branches (FunSQL's Append always
// compiles to UNION ALL, never plain UNION, since row identity is not
// deduplicated).
type Union struct {
	Branches []Node
}

func (n *Union) Accept(v Visitor) string { return v.VisitUnion(n) }

// With is a (possibly recursive) common table expression prefix.
type With struct {
	Recursive bool
	Names     []string
	Bodies    []Node
	Main      Node
}

func (n *With) Accept(v Visitor) string { return v.VisitWith(n) }

// Select is a full SELECT statement or a SELECT-shaped fragment still
// being assembled by Translate (see compile.assemblage).
type Select struct {
	Distinct   bool
	Columns    []Node // *As or bare expressions
	From       *From
	Joins      []*Join
	Where      *Where
	Group      *Group
	Having     *Having
	Window     *Window
	Order      *Order
	Limit      *Limit
}

func (n *Select) Accept(v Visitor) string { return v.VisitSelect(n) }
