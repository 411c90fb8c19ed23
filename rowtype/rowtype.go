// Package rowtype implements the nominal type system used by the compiler
// to describe the shape of rows flowing through a query tree: which fields
// are scalar, which are nested rows, and which aggregate scope (if any) a
// Box makes available to its ancestors.
package rowtype

import "golang.org/x/exp/maps"

// FieldType is the type of a single row field: either ScalarType or a
// nested *RowType. It is a closed union; the zero value is invalid.
type FieldType interface {
	isFieldType()
}

// ScalarType marks a field that holds a single SQL value (produced by a
// scalar expression such as Get, Fun, Agg, Lit).
type ScalarType struct{}

func (ScalarType) isFieldType() {}

// Scalar is the shared ScalarType value; fields rarely need distinct
// instances since ScalarType carries no data.
var Scalar = ScalarType{}

func (*RowType) isFieldType() {}

// GroupType is the aggregate scope exposed by a Box: EmptyType (no
// aggregation possible), a concrete *RowType (the pre-aggregation row, used
// to type-check Agg args), or AmbiguousType (two incompatible scopes were
// merged, e.g. across an Append).
type GroupType interface {
	isGroupType()
}

// EmptyType marks "no rows" (FromNothing) or "no aggregate scope".
type EmptyType struct{}

func (EmptyType) isGroupType() {}

// Empty is the shared EmptyType value.
var Empty = EmptyType{}

// AmbiguousType marks a field or group whose type could not be determined
// uniquely, usually because two branches of an Append or Join disagree.
type AmbiguousType struct{}

func (AmbiguousType) isGroupType() {}
func (AmbiguousType) isFieldType() {}

// Ambiguous is the shared AmbiguousType value.
var Ambiguous = AmbiguousType{}

func (*RowType) isGroupType() {}

// RowType is a named, ordered tuple of fields plus an optional group
// projection reachable via Agg. Order is preserved so the compiler emits
// SELECT lists in the order the user declared them.
type RowType struct {
	Fields map[string]FieldType
	Order  []string
	Group  GroupType // Empty, *RowType, or Ambiguous
}

// NewRowType builds a RowType from an ordered field list, preserving the
// given order and defaulting Group to Empty.
func NewRowType(names []string, fields map[string]FieldType) *RowType {
	rt := &RowType{
		Fields: make(map[string]FieldType, len(fields)),
		Order:  append([]string(nil), names...),
		Group:  Empty,
	}
	for _, n := range names {
		rt.Fields[n] = fields[n]
	}
	return rt
}

// Field looks up a named field, reporting whether it exists.
func (rt *RowType) Field(name string) (FieldType, bool) {
	if rt == nil {
		return nil, false
	}
	f, ok := rt.Fields[name]
	return f, ok
}

// WithGroup returns a shallow copy of rt with Group replaced.
func (rt *RowType) WithGroup(g GroupType) *RowType {
	cp := *rt
	cp.Group = g
	return &cp
}

// HandleType is the type recorded for a handle in a BoxType's handle map:
// either a concrete *RowType or AmbiguousType (two Boxes shared a handle
// with incompatible row shapes, e.g. across an Append branch).
type HandleType interface {
	isHandleType()
}

func (*RowType) isHandleType()     {}
func (AmbiguousType) isHandleType() {}

// BoxType is the resolved type of a Box: the box's own row type, and the
// handle map threading scope-crossing Get(over=...) references through to
// the concrete row type they resolve against.
type BoxType struct {
	Name    string
	Row     *RowType
	Handles map[int]HandleType
}

// NewBoxType creates a BoxType with an empty handle map.
func NewBoxType(name string, row *RowType) *BoxType {
	return &BoxType{Name: name, Row: row, Handles: make(map[int]HandleType)}
}

// AddHandle returns a copy of bt with handle h bound to t. If a different
// type is already registered for h, the handle's type becomes Ambiguous.
func (bt *BoxType) AddHandle(h int, t HandleType) *BoxType {
	if h == 0 || t == nil {
		return bt
	}
	cp := &BoxType{Name: bt.Name, Row: bt.Row, Handles: make(map[int]HandleType, len(bt.Handles)+1)}
	maps.Copy(cp.Handles, bt.Handles)
	if existing, ok := cp.Handles[h]; ok && !handleTypesEqual(existing, t) {
		cp.Handles[h] = Ambiguous
	} else {
		cp.Handles[h] = t
	}
	return cp
}

// MergeHandles folds another BoxType's handle map into a copy of bt,
// marking any colliding handle with an incompatible type as Ambiguous.
func (bt *BoxType) MergeHandles(other *BoxType) *BoxType {
	if other == nil {
		return bt
	}
	cp := &BoxType{Name: bt.Name, Row: bt.Row, Handles: make(map[int]HandleType, len(bt.Handles)+len(other.Handles))}
	maps.Copy(cp.Handles, bt.Handles)
	for h, t := range other.Handles {
		if existing, ok := cp.Handles[h]; ok && !handleTypesEqual(existing, t) {
			cp.Handles[h] = Ambiguous
		} else {
			cp.Handles[h] = t
		}
	}
	return cp
}

func handleTypesEqual(a, b HandleType) bool {
	ar, aok := a.(*RowType)
	br, bok := b.(*RowType)
	if aok && bok {
		return Subset(ar, br) && Subset(br, ar)
	}
	_, aAmb := a.(AmbiguousType)
	_, bAmb := b.(AmbiguousType)
	return aAmb && bAmb
}

// EmptyBox is the BoxType assigned to FromNothing and other zero-row
// positions.
var EmptyBox = NewBoxType("", NewRowType(nil, nil))
