package compile

import (
	"fmt"

	"github.com/oxhq/funsql/catalog"
	"github.com/oxhq/funsql/rowtype"
)

// Resolve is the second compile pass: it walks the Box arena in allocation
// order (which Annotate guarantees is post-order, children before
// parents) and fills each Box's Type per the table in SPEC_FULL.md §9.2.
// cat supplies each FromTable box's real column list; a nil cat (or a
// table cat doesn't know about) leaves that box with an opaque, columnless
// row, which Link then rejects the first time anything tries to reference
// a field on it.
func Resolve(t *Tree, cat *catalog.SQLCatalog) error {
	for _, b := range t.Boxes {
		if err := resolveBox(t, b, cat); err != nil {
			return err
		}
	}
	return nil
}

func resolveBox(t *Tree, b *Box, cat *catalog.SQLCatalog) error {
	switch b.Kind {
	case FromTableBox:
		b.Type = rowtype.NewBoxType(b.TableName, tableRowType(cat, b.TableName))

	case FromNothingBox:
		b.Type = rowtype.EmptyBox

	case FromValuesBox:
		fields := make(map[string]rowtype.FieldType, len(b.ValuesColumns))
		for _, c := range b.ValuesColumns {
			fields[c] = rowtype.Scalar
		}
		b.Type = rowtype.NewBoxType("", rowtype.NewRowType(b.ValuesColumns, fields))

	case FromReferenceBox:
		over := t.box(b.Over)
		if over == nil || over.Type == nil {
			return refError(UndefinedTableReference, t.pathOf(b.ID), "reference "+b.RefName+" has no resolved type")
		}
		b.Type = rowtype.NewBoxType(b.RefName, over.Type.Row)

	case FromIterateBox:
		knot := t.box(b.Over)
		if knot != nil && knot.Type != nil {
			b.Type = knot.Type
		} else {
			b.Type = rowtype.EmptyBox
		}

	case KnotBox:
		base := t.box(b.Over)
		if base != nil && base.Type != nil {
			b.Type = base.Type
		} else {
			b.Type = rowtype.EmptyBox
		}

	case AppendBox:
		result := t.box(b.Over).Type
		for _, brID := range b.Branches {
			br := t.box(brID)
			result = boxIntersect(result, br.Type)
		}
		b.Type = result

	case AsBox:
		over := t.box(b.Over)
		fields := map[string]rowtype.FieldType{b.Alias: over.Type.Row}
		b.Type = rowtype.NewBoxType(b.Alias, rowtype.NewRowType([]string{b.Alias}, fields))
		b.Type.Handles = over.Type.Handles

	case DefineBox:
		over := t.box(b.Over)
		names := append([]string(nil), over.Type.Row.Order...)
		fields := make(map[string]rowtype.FieldType, len(over.Type.Row.Fields)+len(b.LabelMap))
		for k, v := range over.Type.Row.Fields {
			fields[k] = v
		}
		for i := range b.Args {
			name, ok := b.LabelMap[i]
			if !ok {
				continue
			}
			if _, exists := fields[name]; !exists {
				names = append(names, name)
			}
			fields[name] = rowtype.Scalar
		}
		b.Type = rowtype.NewBoxType(over.Type.Name, rowtype.NewRowType(names, fields))
		b.Type.Handles = over.Type.Handles

	case GroupBox:
		over := t.box(b.Over)
		names := make([]string, 0, len(b.By))
		fields := make(map[string]rowtype.FieldType, len(b.By))
		for i := range b.By {
			name := b.LabelMap[i]
			names = append(names, name)
			fields[name] = rowtype.Scalar
		}
		row := rowtype.NewRowType(names, fields)
		b.Type = rowtype.NewBoxType(b.Name, row.WithGroup(over.Type.Row))

	case PartitionBox:
		over := t.box(b.Over)
		b.Type = rowtype.NewBoxType(b.Name, over.Type.Row.WithGroup(over.Type.Row))
		b.Type.Handles = over.Type.Handles

	case SelectBox:
		names := make([]string, 0, len(b.Args))
		fields := make(map[string]rowtype.FieldType, len(b.Args))
		for i := range b.Args {
			name := b.LabelMap[i]
			if name == "" {
				name = fmt.Sprintf("col_%d", i+1)
			}
			names = append(names, name)
			fields[name] = rowtype.Scalar
		}
		b.Type = rowtype.NewBoxType("", rowtype.NewRowType(names, fields))

	case WhereBox, OrderBox, LimitBox, HighlightBox, BindBox, WithBox:
		over := t.box(b.Over)
		b.Type = over.Type

	case JoinBox:
		left := t.box(b.Over)
		right := t.box(b.Joinee)
		b.Type = boxUnion(left.Type, right.Type)

	case IterateBox:
		if err := resolveIterate(t, b, cat); err != nil {
			return err
		}

	default:
		return illFormed(t.pathOf(b.ID), "resolve: unhandled box kind")
	}
	return nil
}

// tableRowType builds the row type a FromTable box exposes: its catalog
// columns, in catalog order, each scalar. An unknown table (or a nil
// catalog, e.g. a standalone Annotate+Resolve call with no catalog wired
// up yet) resolves to an opaque, columnless row; Link then rejects the
// first reference against it.
func tableRowType(cat *catalog.SQLCatalog, tableName string) *rowtype.RowType {
	if cat == nil {
		return rowtype.NewRowType(nil, nil)
	}
	tbl, err := cat.Table(tableName)
	if err != nil {
		return rowtype.NewRowType(nil, nil)
	}
	fields := make(map[string]rowtype.FieldType, len(tbl.ColumnOrder))
	for _, c := range tbl.ColumnOrder {
		fields[c] = rowtype.Scalar
	}
	return rowtype.NewRowType(tbl.ColumnOrder, fields)
}

func boxIntersect(a, b *rowtype.BoxType) *rowtype.BoxType {
	row := rowtype.Intersect(a.Row, b.Row)
	merged := rowtype.NewBoxType(a.Name, row)
	merged = merged.MergeHandles(a).MergeHandles(b)
	return merged
}

func boxUnion(a, b *rowtype.BoxType) *rowtype.BoxType {
	row := rowtype.Union(a.Row, b.Row)
	merged := rowtype.NewBoxType(a.Name, row)
	merged = merged.MergeHandles(a).MergeHandles(b)
	return merged
}

// resolveIterate widens the knot's type by repeatedly re-resolving the
// iterator subtree and intersecting it with the knot's current type,
// until the iterator's type is a subset of the knot's (fixpoint), capped
// at len(baseType.Fields)+1 rounds per SPEC_FULL.md §9.2/§8 property 4.
func resolveIterate(t *Tree, b *Box, cat *catalog.SQLCatalog) error {
	base := t.box(b.Over)
	knot := t.box(b.Knot)
	knot.Type = base.Type
	maxRounds := len(base.Type.Row.Fields) + 1
	for round := 0; round < maxRounds; round++ {
		if err := resolveSubtree(t, b.Iterator, cat); err != nil {
			return err
		}
		iter := t.box(b.Iterator)
		if rowtype.Subset(iter.Type.Row, knot.Type.Row) {
			b.Type = knot.Type
			return nil
		}
		knot.Type = rowtype.NewBoxType(knot.Type.Name, rowtype.Intersect(knot.Type.Row, iter.Type.Row))
	}
	return &Error{Kind: IllFormed, Path: t.pathOf(b.ID), Msg: "Iterate did not reach a fixpoint"}
}

// resolveSubtree re-resolves every box reachable from root (inclusive),
// used to re-run Resolve over an Iterate's iterator branch each round.
func resolveSubtree(t *Tree, root BoxID, cat *catalog.SQLCatalog) error {
	visited := make(map[BoxID]bool)
	var walk func(id BoxID) error
	walk = func(id BoxID) error {
		if id == 0 || visited[id] {
			return nil
		}
		b := t.box(id)
		for _, child := range childBoxes(b) {
			if err := walk(child); err != nil {
				return err
			}
		}
		visited[id] = true
		return resolveBox(t, b, cat)
	}
	return walk(root)
}

func childBoxes(b *Box) []BoxID {
	if b.Kind == FromIterateBox {
		// Over points back at the enclosing knot, whose type is being
		// actively widened by resolveIterate; it is read, never
		// re-resolved, while walking an iterator subtree.
		return nil
	}
	var out []BoxID
	if b.Over != 0 {
		out = append(out, b.Over)
	}
	if b.Joinee != 0 {
		out = append(out, b.Joinee)
	}
	out = append(out, b.Branches...)
	if b.Iterator != 0 {
		out = append(out, b.Iterator)
	}
	return out
}
