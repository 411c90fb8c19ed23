// Package query defines the user-facing semantic query tree: tabular
// operators that produce rows (From, Where, Select, Join, ...) and scalar
// operators that produce a single value (Get, Fun, Agg, Lit, ...). Nodes
// are immutable once constructed; a pipeline is built by chaining tabular
// nodes through their Over field.
package query

// Kind distinguishes the two node families the compiler must never
// confuse: a tabular node produces a row stream, a scalar node produces a
// value. Mixing them up at a boundary is an IllFormed error (see package
// compile).
type Kind int

const (
	// TabularKind marks a node that produces rows.
	TabularKind Kind = iota
	// ScalarKind marks a node that produces a single value.
	ScalarKind
)

// Node is the common interface implemented by every tabular and scalar
// variant. Kind reports which family a concrete value belongs to so
// structural passes (annotate, dissect) can dispatch without a type
// assertion ladder at every call site.
type Node interface {
	Kind() Kind
}

// Tabular is implemented by every tabular node. ChainOver returns the
// node's upstream "over" pointer (nil at the deepest position), used by
// Rebase and by dissect.Chain to walk pipelines.
type Tabular interface {
	Node
	ChainOver() Tabular
}

// Scalar is implemented by every scalar node.
type Scalar interface {
	Node
	scalarNode()
}

// Rebase replaces the deepest node in chain whose ChainOver() is nil with
// base, returning the rebuilt pipeline. It mirrors "a |> b" binding b.Over
// = a, but applied retroactively to splice a new root underneath an
// existing pipeline (used when a saved query fragment is reused under a
// different FROM).
func Rebase(chain Tabular, base Tabular) Tabular {
	return rebase(chain, base)
}

func rebase(n Tabular, base Tabular) Tabular {
	if n == nil {
		return base
	}
	if n.ChainOver() == nil {
		return withOver(n, base)
	}
	return withOver(n, rebase(n.ChainOver(), base))
}

// withOver returns a copy of n with its Over/base pointer replaced. It is
// implemented as a type switch over the closed set of tabular variants
// because Go has no generic "copy with field changed" primitive; this is
// the one place the chain-rebasing rule from SPEC_FULL.md §6 is spelled
// out explicitly rather than inferred from an embedded struct.
func withOver(n Tabular, newOver Tabular) Tabular {
	switch t := n.(type) {
	case *Where:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Select:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Define:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Group:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Partition:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Join:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Append:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Order:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Limit:
		cp := *t
		cp.Over = newOver
		return &cp
	case *As:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Bind:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Iterate:
		cp := *t
		cp.Over = newOver
		return &cp
	case *With:
		cp := *t
		cp.Over = newOver
		return &cp
	case *Highlight:
		cp := *t
		cp.Over = newOver
		return &cp
	default:
		// From and other terminal nodes have no Over to replace: a Rebase
		// attempt past a terminal is a Rebase error, surfaced by compile.
		return n
	}
}
