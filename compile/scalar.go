package compile

import "github.com/oxhq/funsql/query"

// Scalar is the annotated scalar vocabulary: the user's query.Scalar
// nodes, with Get chains rebound into NameBound/HandleBound decorations
// around a base Get or Agg, per the rebinding rule in SPEC_FULL.md §9.1.
type Scalar interface {
	isAnnScalar()
}

// Get is a base field access, resolved against the ambient row type at
// its position (after any enclosing NameBound/HandleBound has narrowed
// that position).
type Get struct {
	Name string
}

func (*Get) isAnnScalar() {}

// NameBound qualifies Inner through a named row field (e.g. the "p" in
// p.id): at link time, resolving against the current row type's field
// Name narrows the type for Inner.
type NameBound struct {
	Name  string
	Inner Scalar
}

func (*NameBound) isAnnScalar() {}

// HandleBound qualifies Inner through a specific Box, addressed by its
// globally-unique Handle (assigned when annotate first crosses a scope
// boundary to reach it). Link rewrites a HandleBound whose Handle matches
// the current Box back to plain Inner — that Box is the binding site.
type HandleBound struct {
	Handle int
	Inner  Scalar
}

func (*HandleBound) isAnnScalar() {}

// Fun calls a named scalar function.
type Fun struct {
	Name string
	Args []Scalar
}

func (*Fun) isAnnScalar() {}

// Agg calls an aggregate/window function. Over, when non-zero, is the
// Partition Box opening this Agg's window scope.
type Agg struct {
	Name     string
	Args     []Scalar
	Distinct bool
	Filter   Scalar
	Over     BoxID
}

func (*Agg) isAnnScalar() {}

// Lit wraps a constant value.
type Lit struct {
	Value any
}

func (*Lit) isAnnScalar() {}

// Var references a bound query variable.
type Var struct {
	Name string
}

func (*Var) isAnnScalar() {}

// Sort wraps a scalar with its ordering direction.
type Sort struct {
	Arg   Scalar
	Dir   query.SortDirection
	Nulls query.NullsOrder
}

func (*Sort) isAnnScalar() {}

// ScalarAs names a scalar's output column.
type ScalarAs struct {
	Arg  Scalar
	Name string
}

func (*ScalarAs) isAnnScalar() {}
