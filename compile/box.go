// Package compile implements the four-pass pipeline that turns a
// query.Node tree into a dialect-specific SQL string: Annotate boxes every
// tabular position and rebinds scalar Get chains, Resolve infers each
// Box's row type bottom-up, Link computes the minimal column set each Box
// must materialize, and Translate/Assemble folds the result into a
// clause.Node tree. See SPEC_FULL.md §9 for the pass-by-pass contract this
// package implements.
package compile

import (
	"github.com/oxhq/funsql/query"
	"github.com/oxhq/funsql/rowtype"
)

// BoxID is a stable index into a Tree's Boxes arena. The zero value means
// "no box" (an absent Over/Joinee/etc.), so real boxes are numbered from 1.
type BoxID int

// BoxKind tags which original tabular operator a Box stands in for.
type BoxKind int

const (
	FromTableBox BoxKind = iota
	FromNothingBox
	FromReferenceBox
	FromIterateBox
	FromValuesBox
	WhereBox
	SelectBox
	DefineBox
	GroupBox
	PartitionBox
	JoinBox // ExtendedJoin
	AppendBox
	OrderBox
	LimitBox
	AsBox
	BindBox // IntBind
	IterateBox
	KnotBox
	WithBox
	HighlightBox
)

// Box is one node of the annotated tree: the arena slot for a single
// tabular position, carrying its original operator's fields (renamed to
// the annotated vocabulary), plus the Type (filled by Resolve) and Refs
// (filled by Link) that accumulate as later passes run.
type Box struct {
	ID   BoxID
	Kind BoxKind
	Over BoxID // chain pointer into the arena; 0 at a terminal (From*)

	// FromTable / FromReference
	Qualifiers []string
	TableName  string
	RefName    string

	// FromValues
	ValuesRows    [][]Scalar
	ValuesColumns []string

	// Where
	Condition Scalar

	// Select / Define / Bind: projected/defined args
	Args     []Scalar
	LabelMap map[int]string

	// Group / Partition
	By       []Scalar
	OrderBy  []Scalar
	Sets     [][]int
	Name     string
	Frame    *query.Frame

	// Join
	Joinee   BoxID
	On       Scalar
	JoinType query.JoinType
	Optional bool
	Lateral  bool

	// Append / With
	Branches []BoxID

	// Order
	Sort []Scalar

	// Limit
	Offset *int
	Count  *int

	// As / Highlight
	Alias string
	Color string

	// Bind
	Owned bool

	// Iterate / Knot
	Iterator BoxID
	Knot     BoxID

	// With
	Materialized *bool

	// Handle this box is addressable as, if any HandleBound ref ever
	// resolved against it (0 means never addressed by handle).
	Handle int

	// filled by Resolve
	Type *rowtype.BoxType

	// filled by Link
	Refs []Scalar
}

// Tree is the output of Annotate and the shared state threaded through
// Resolve, Link, and Translate.
type Tree struct {
	Boxes   []*Box
	PathMap map[BoxID]Path
	Root    BoxID

	handleSeq int
	cteScope  map[string]BoxID // With/Iterate name -> box
}

func newTree() *Tree {
	return &Tree{
		PathMap:  make(map[BoxID]Path),
		cteScope: make(map[string]BoxID),
	}
}

// newBox appends a zero Box of the given kind and returns its stable ID.
func (t *Tree) newBox(kind BoxKind, path Path) *Box {
	id := BoxID(len(t.Boxes) + 1)
	b := &Box{ID: id, Kind: kind}
	t.Boxes = append(t.Boxes, b)
	t.PathMap[id] = append(Path(nil), path...)
	return b
}

func (t *Tree) box(id BoxID) *Box {
	if id == 0 {
		return nil
	}
	return t.Boxes[id-1]
}

// allocHandle returns a fresh, globally-unique handle for box id.
func (t *Tree) allocHandle(id BoxID) int {
	t.handleSeq++
	t.box(id).Handle = t.handleSeq
	return t.handleSeq
}

func (t *Tree) pathOf(id BoxID) Path {
	return t.PathMap[id]
}
