package compile

import "github.com/oxhq/funsql/rowtype"

// Link is the third compile pass: top-down reference propagation. The
// root Box is seeded with one Get per scalar field of its resolved row
// type; Boxes are then visited in reverse allocation order (so a child is
// always visited after everything that consumes it), and each Box's
// incoming refs are validated against its own Type and pushed further
// down to whatever Boxes it depends on, per the table in
// SPEC_FULL.md §9.3.
func Link(t *Tree) error {
	pending := make(map[BoxID][]Scalar)
	root := t.box(t.Root)
	if root.Type == nil {
		return illFormed(t.pathOf(t.Root), "root box has no resolved type")
	}
	for _, name := range root.Type.Row.Order {
		if _, isRow := root.Type.Row.Fields[name].(*rowtype.RowType); isRow {
			continue
		}
		pending[t.Root] = append(pending[t.Root], &Get{Name: name})
	}
	for id := BoxID(len(t.Boxes)); id >= 1; id-- {
		b := t.box(id)
		b.Refs = pending[id]
		for i, ref := range b.Refs {
			if hb, ok := ref.(*HandleBound); ok && b.Handle != 0 && hb.Handle == b.Handle {
				b.Refs[i] = hb.Inner
			}
		}
		if err := validateRefs(t, b); err != nil {
			return err
		}
		if err := linkBox(t, b, pending); err != nil {
			return err
		}
	}
	return nil
}

func push(pending map[BoxID][]Scalar, target BoxID, refs ...Scalar) {
	if target == 0 {
		return
	}
	for _, r := range refs {
		if r != nil {
			pending[target] = append(pending[target], r)
		}
	}
}

// gather decomposes a scalar expression into the leaf references
// (Get/NameBound/HandleBound/Agg) that must be validated and propagated,
// per SPEC_FULL.md §9.3. An Agg with an explicit window Box (Over != 0)
// routes its own arguments to that Box instead of to target, since they
// are evaluated in the window's row scope, not the position where the
// aggregate's result is consumed.
func gather(pending map[BoxID][]Scalar, target BoxID, s Scalar) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *Get, *NameBound, *HandleBound:
		push(pending, target, s)
	case *Agg:
		if n.Over != 0 {
			for _, a := range n.Args {
				gather(pending, n.Over, a)
			}
			gather(pending, n.Over, n.Filter)
		}
		push(pending, target, s)
	case *Fun:
		for _, a := range n.Args {
			gather(pending, target, a)
		}
	case *Sort:
		gather(pending, target, n.Arg)
	case *ScalarAs:
		gather(pending, target, n.Arg)
	case *Lit, *Var:
		// literals and variables reference nothing in the row.
	}
}

func refName(s Scalar) (string, bool) {
	switch n := s.(type) {
	case *Get:
		return n.Name, true
	case *NameBound:
		return n.Name, true
	}
	return "", false
}

func linkBox(t *Tree, b *Box, pending map[BoxID][]Scalar) error {
	switch b.Kind {
	case FromTableBox, FromNothingBox, FromValuesBox, FromIterateBox, KnotBox:
		// terminal: nothing to propagate further down.

	case FromReferenceBox:
		push(pending, b.Over, b.Refs...)

	case WhereBox:
		push(pending, b.Over, b.Refs...)
		gather(pending, b.Over, b.Condition)

	case OrderBox:
		push(pending, b.Over, b.Refs...)
		for _, s := range b.Sort {
			gather(pending, b.Over, s)
		}

	case LimitBox, HighlightBox:
		push(pending, b.Over, b.Refs...)

	case SelectBox:
		for _, arg := range b.Args {
			gather(pending, b.Over, arg)
		}

	case DefineBox:
		labelIdx := make(map[string]int, len(b.LabelMap))
		for i, name := range b.LabelMap {
			labelIdx[name] = i
		}
		gathered := make(map[string]bool)
		for _, ref := range b.Refs {
			name, ok := refName(ref)
			if ok {
				if idx, isDefined := labelIdx[name]; isDefined {
					if !gathered[name] {
						gather(pending, b.Over, b.Args[idx])
						gathered[name] = true
					}
					continue
				}
			}
			push(pending, b.Over, ref)
		}

	case GroupBox:
		for _, by := range b.By {
			gather(pending, b.Over, by)
		}
		keys := make(map[string]bool, len(b.LabelMap))
		for _, name := range b.LabelMap {
			keys[name] = true
		}
		for _, ref := range b.Refs {
			if agg, ok := ref.(*Agg); ok {
				for _, a := range agg.Args {
					gather(pending, b.Over, a)
				}
				gather(pending, b.Over, agg.Filter)
				continue
			}
			name, ok := refName(ref)
			if ok && keys[name] {
				continue
			}
			return refError(UnexpectedAggregate, t.pathOf(b.ID), "non-aggregate reference over a Group must name a group key")
		}

	case PartitionBox:
		for _, by := range b.By {
			gather(pending, b.Over, by)
		}
		for _, ob := range b.OrderBy {
			gather(pending, b.Over, ob)
		}
		for _, ref := range b.Refs {
			if agg, ok := ref.(*Agg); ok {
				for _, a := range agg.Args {
					gather(pending, b.Over, a)
				}
				gather(pending, b.Over, agg.Filter)
				continue
			}
			push(pending, b.Over, ref)
		}

	case AppendBox:
		push(pending, b.Over, b.Refs...)
		for _, br := range b.Branches {
			push(pending, br, b.Refs...)
		}

	case AsBox:
		for _, ref := range b.Refs {
			switch n := ref.(type) {
			case *NameBound:
				if n.Name == b.Alias {
					push(pending, b.Over, n.Inner)
					continue
				}
				return refError(UndefinedName, t.pathOf(b.ID), "name "+n.Name+" does not match alias "+b.Alias)
			case *HandleBound:
				push(pending, b.Over, n)
			default:
				return illFormed(t.pathOf(b.ID), "unexpected reference shape through As")
			}
		}

	case JoinBox:
		left := t.box(b.Over)
		right := t.box(b.Joinee)
		on := make(map[BoxID][]Scalar)
		gather(on, b.ID, b.On)
		for target, refs := range on {
			if target != b.ID {
				push(pending, target, refs...)
			}
		}
		for _, ref := range on[b.ID] {
			routeJoinRef(pending, left, right, ref)
		}
		for _, ref := range b.Refs {
			routeJoinRef(pending, left, right, ref)
		}

	case BindBox:
		if !b.Owned {
			for _, arg := range b.Args {
				gather(pending, 0, arg)
			}
		}
		push(pending, b.Over, b.Refs...)

	case IterateBox:
		push(pending, b.Over, b.Refs...)
		push(pending, b.Iterator, b.Refs...)

	case WithBox:
		push(pending, b.Over, b.Refs...)

	default:
		return illFormed(t.pathOf(b.ID), "link: unhandled box kind")
	}
	return nil
}

// routeJoinRef sends ref to the left or right side of a Join depending on
// whether it resolves against the left row type or must fall through to
// the right, per the Routing rule in SPEC_FULL.md §9.3.
func routeJoinRef(pending map[BoxID][]Scalar, left, right *Box, ref Scalar) {
	if ref == nil {
		return
	}
	switch n := ref.(type) {
	case *NameBound:
		if _, ok := left.Type.Row.Field(n.Name); ok {
			gather(pending, left.ID, n)
			return
		}
		gather(pending, right.ID, n)
	case *HandleBound:
		if _, ok := left.Type.Handles[n.Handle]; ok {
			gather(pending, left.ID, n)
			return
		}
		gather(pending, right.ID, n)
	case *Get:
		if _, ok := left.Type.Row.Field(n.Name); ok {
			gather(pending, left.ID, n)
			return
		}
		gather(pending, right.ID, n)
	default:
		gather(pending, right.ID, ref)
	}
}

func validateRefs(t *Tree, b *Box) error {
	if b.Type == nil {
		return nil
	}
	for _, ref := range b.Refs {
		if err := validateRef(t, b, b.Type, ref); err != nil {
			return err
		}
	}
	return nil
}

func validateRef(t *Tree, b *Box, bt *rowtype.BoxType, ref Scalar) error {
	path := t.pathOf(b.ID)
	switch n := ref.(type) {
	case *Get:
		field, ok := bt.Row.Field(n.Name)
		if !ok {
			return refError(UndefinedName, path, "undefined name "+n.Name)
		}
		if _, isRow := field.(*rowtype.RowType); isRow {
			return refError(UnexpectedRowType, path, n.Name+" is a row, not a scalar")
		}
		return nil

	case *NameBound:
		field, ok := bt.Row.Field(n.Name)
		if !ok {
			return refError(UndefinedName, path, "undefined name "+n.Name)
		}
		row, isRow := field.(*rowtype.RowType)
		if !isRow {
			return refError(UnexpectedScalarType, path, n.Name+" is scalar, cannot be qualified further")
		}
		return validateRef(t, b, rowtype.NewBoxType(n.Name, row), n.Inner)

	case *HandleBound:
		ht, ok := bt.Handles[n.Handle]
		if !ok {
			return refError(UndefinedHandle, path, "undefined handle reference")
		}
		row, isRow := ht.(*rowtype.RowType)
		if !isRow {
			return refError(AmbiguousHandle, path, "ambiguous handle reference")
		}
		return validateRef(t, b, rowtype.NewBoxType("", row), n.Inner)

	case *Agg:
		group, isRow := bt.Row.Group.(*rowtype.RowType)
		switch bt.Row.Group.(type) {
		case rowtype.EmptyType:
			return refError(UnexpectedAggregate, path, "aggregate outside a group scope")
		case rowtype.AmbiguousType:
			return refError(AmbiguousAggregate, path, "ambiguous aggregate scope")
		}
		if !isRow {
			return refError(UnexpectedAggregate, path, "aggregate outside a group scope")
		}
		for _, a := range n.Args {
			if err := validateRef(t, b, rowtype.NewBoxType("", group), a); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}
