package query

// FromSource identifies what a From node pulls rows from.
type FromSource interface {
	fromSource()
}

// FromTable sources rows from a catalog table.
type FromTable struct {
	TableName string
}

func (FromTable) fromSource() {}

// FromSymbol sources rows from a named CTE (bound by an enclosing With or
// the self-reference inside an Iterate).
type FromSymbol struct {
	Name string
}

func (FromSymbol) fromSource() {}

// FromIterateSelf marks the recursive self-reference inside an Iterate's
// iterator subtree.
type FromIterateSelf struct{}

func (FromIterateSelf) fromSource() {}

// FromValues sources rows from an inline row-constructor list.
type FromValues struct {
	Rows    [][]Scalar
	Columns []string
}

func (FromValues) fromSource() {}

// FromNothing produces zero rows of an empty type; used as a placeholder
// base for trees that are pure scalar-subquery hosts.
type FromNothing struct{}

func (FromNothing) fromSource() {}

// From is the tabular source node: a Table, a CTE reference, the
// recursive self-reference inside Iterate, an inline Values list, or
// Nothing. From is always the deepest node in a pipeline (ChainOver is
// always nil).
type From struct {
	Source FromSource
}

func (*From) Kind() Kind         { return TabularKind }
func (*From) ChainOver() Tabular { return nil }

// NewFrom builds a From(Table(name)) node.
func NewFrom(tableName string) *From {
	return &From{Source: FromTable{TableName: tableName}}
}

// FromRef builds a From(Symbol(name)) node referencing a CTE.
func FromRef(name string) *From {
	return &From{Source: FromSymbol{Name: name}}
}

// Where filters rows by Condition.
type Where struct {
	Over      Tabular
	Condition Scalar
}

func (*Where) Kind() Kind           { return TabularKind }
func (n *Where) ChainOver() Tabular { return n.Over }

// Select replaces the projection with Args, optionally aliased via
// LabelMap (arg index -> output name; unnamed args keep their natural
// name, e.g. a bare Get).
type Select struct {
	Over     Tabular
	Args     []Scalar
	LabelMap map[int]string
}

func (*Select) Kind() Kind           { return TabularKind }
func (n *Select) ChainOver() Tabular { return n.Over }

// Define adds computed columns without dropping the existing ones;
// LabelMap names each Args entry (Define always names its outputs).
type Define struct {
	Over     Tabular
	Args     []Scalar
	LabelMap map[int]string
}

func (*Define) Kind() Kind           { return TabularKind }
func (n *Define) ChainOver() Tabular { return n.Over }

// Group aggregates by By, optionally with advanced GroupingSets (Sets is a
// list of index-sets into By, per SPEC_FULL.md; nil means a plain GROUP
// BY). LabelMap names each By entry.
type Group struct {
	Over     Tabular
	By       []Scalar
	Sets     [][]int
	Name     string
	LabelMap map[int]string
}

func (*Group) Kind() Kind           { return TabularKind }
func (n *Group) ChainOver() Tabular { return n.Over }

// Frame describes a window frame (ROWS/RANGE BETWEEN ...).
type Frame struct {
	Mode  FrameMode
	Start Bound
	End   *Bound
}

type FrameMode int

const (
	RowsFrame FrameMode = iota
	RangeFrame
)

type BoundKind int

const (
	UnboundedPreceding BoundKind = iota
	Preceding
	CurrentRow
	Following
	UnboundedFollowing
)

type Bound struct {
	Kind   BoundKind
	Offset Scalar
}

// Partition opens a window scope (PARTITION BY / ORDER BY / frame) without
// introducing a GROUP BY; it is consumed by Agg nodes whose Over points
// back at this Partition.
type Partition struct {
	Over    Tabular
	By      []Scalar
	OrderBy []Scalar
	Frame   *Frame
	Name    string
}

func (*Partition) Kind() Kind           { return TabularKind }
func (n *Partition) ChainOver() Tabular { return n.Over }

// JoinType mirrors the SQL join kinds a Join node can render as.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

// Join combines Over (left) with Joinee (right) on condition On.
type Join struct {
	Over     Tabular
	Joinee   Tabular
	On       Scalar
	Type     JoinType
	Optional bool // true allows the planner to treat missing right rows as null-extended (outer)
	Lateral  bool
}

func (*Join) Kind() Kind           { return TabularKind }
func (n *Join) ChainOver() Tabular { return n.Over }

// Append unions Over with each of Args (UNION ALL semantics).
type Append struct {
	Over Tabular
	Args []Tabular
}

func (*Append) Kind() Kind           { return TabularKind }
func (n *Append) ChainOver() Tabular { return n.Over }

// Order applies an ORDER BY.
type Order struct {
	Over Tabular
	By   []Scalar
}

func (*Order) Kind() Kind           { return TabularKind }
func (n *Order) ChainOver() Tabular { return n.Over }

// Limit applies OFFSET/LIMIT. Either may be nil.
type Limit struct {
	Over   Tabular
	Offset *int
	Count  *int
}

func (*Limit) Kind() Kind           { return TabularKind }
func (n *Limit) ChainOver() Tabular { return n.Over }

// As names a tabular node so NameBound references can qualify through it
// (person |> As("p") lets downstream Get(over=Get(name="p"), name="id")
// resolve).
type As struct {
	Over Tabular
	Name string
}

func (*As) Kind() Kind           { return TabularKind }
func (n *As) ChainOver() Tabular { return n.Over }

// Bind supplies query-variable values to a subquery; Args are matched to
// LabelMap names and substituted for Var references inside Over.
type Bind struct {
	Over     Tabular
	Args     []Scalar
	LabelMap map[int]string
}

func (*Bind) Kind() Kind           { return TabularKind }
func (n *Bind) ChainOver() Tabular { return n.Over }

// Iterate is a recursive CTE: Over is the non-recursive base case,
// Iterator is the recursive step (which refers back to the knot via
// FromIterateSelf).
type Iterate struct {
	Over     Tabular
	Iterator Tabular
}

func (*Iterate) Kind() Kind           { return TabularKind }
func (n *Iterate) ChainOver() Tabular { return n.Over }

// With introduces one or more named CTEs (Args, named via LabelMap) scoped
// over Over.
type With struct {
	Over         Tabular
	Args         []Tabular
	Materialized *bool
	LabelMap     map[int]string
}

func (*With) Kind() Kind           { return TabularKind }
func (n *With) ChainOver() Tabular { return n.Over }

// Highlight is a diagnostics pass-through: it carries a Color annotation
// but otherwise behaves exactly like Over.
type Highlight struct {
	Over  Tabular
	Color string
}

func (*Highlight) Kind() Kind           { return TabularKind }
func (n *Highlight) ChainOver() Tabular { return n.Over }
