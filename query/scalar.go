package query

// Get references a named field, either on the implicit ambient row (Over
// == nil, the common case: col("name")) or scoped through an explicit
// upstream node (over=Get(name="p"), name="id" — qualifies through an As).
// Over is typed as Node rather than Tabular because a NameBound Get may,
// before resolution, point at another scalar Get forming a dotted path
// (p.address.city); the annotate pass rewrites these chains into nested
// NameBound wrappers, adding a HandleBound only when the chain ends at a
// tabular node.
type Get struct {
	Over Node
	Name string

	// Handle is not set or read by compile's annotate pass, which keeps
	// handles on its own HandleBound wrappers; it is zero unless the
	// caller sets it.
	Handle int
}

func (*Get) Kind() Kind  { return ScalarKind }
func (*Get) scalarNode() {}

// Col builds an unqualified Get (references the ambient row).
func Col(name string) *Get {
	return &Get{Name: name}
}

// GetOver builds a Get qualified through over (e.g. Get(over=Col("p"),
// name="id")).
func GetOver(over Node, name string) *Get {
	return &Get{Over: over, Name: name}
}

// Fun calls a named scalar function (including operators rendered as
// functions, e.g. "+", "=", "and").
type Fun struct {
	Name string
	Args []Scalar
}

func (*Fun) Kind() Kind  { return ScalarKind }
func (*Fun) scalarNode() {}

// NewFun builds a Fun(name, args...) node.
func NewFun(name string, args ...Scalar) *Fun {
	return &Fun{Name: name, Args: args}
}

// Agg calls an aggregate or window function. Over, when non-nil, points at
// a Partition node opening the window scope this Agg is evaluated within;
// a nil Over means the Agg aggregates over the enclosing Group's scope.
// Filter, when non-nil, renders as FILTER (WHERE ...).
type Agg struct {
	Name     string
	Args     []Scalar
	Distinct bool
	Filter   Scalar
	Over     Tabular
}

func (*Agg) Kind() Kind  { return ScalarKind }
func (*Agg) scalarNode() {}

// NewAgg builds an Agg(name, args...) node with no window scope.
func NewAgg(name string, args ...Scalar) *Agg {
	return &Agg{Name: name, Args: args}
}

// Lit wraps a constant Go value (string, int64, float64, bool, nil, or a
// []byte) as a scalar literal.
type Lit struct {
	Value any
}

func (*Lit) Kind() Kind  { return ScalarKind }
func (*Lit) scalarNode() {}

// NewLit wraps v as a Lit node.
func NewLit(v any) *Lit {
	return &Lit{Value: v}
}

// Var references a query variable bound by an enclosing Bind node.
type Var struct {
	Name string
}

func (*Var) Kind() Kind  { return ScalarKind }
func (*Var) scalarNode() {}

// NewVar builds a Var(name) reference.
func NewVar(name string) *Var {
	return &Var{Name: name}
}

// SortDirection is the ordering direction attached to a Sort node.
type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

// NullsOrder controls where NULLs sort relative to non-null values.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// Sort wraps a scalar with an ordering direction, used inside Order.By and
// Partition.OrderBy.
type Sort struct {
	Arg   Scalar
	Dir   SortDirection
	Nulls NullsOrder
}

func (*Sort) Kind() Kind  { return ScalarKind }
func (*Sort) scalarNode() {}

// SortAsc wraps arg in an ascending Sort.
func SortAsc(arg Scalar) *Sort {
	return &Sort{Arg: arg, Dir: Asc}
}

// SortDesc wraps arg in a descending Sort.
func SortDesc(arg Scalar) *Sort {
	return &Sort{Arg: arg, Dir: Desc}
}

// As names a scalar expression's output column (distinct from the tabular
// As, which names a whole pipeline).
type ScalarAs struct {
	Arg  Scalar
	Name string
}

func (*ScalarAs) Kind() Kind  { return ScalarKind }
func (*ScalarAs) scalarNode() {}

// Label wraps arg in a ScalarAs, naming its output column.
func Label(arg Scalar, name string) *ScalarAs {
	return &ScalarAs{Arg: arg, Name: name}
}
