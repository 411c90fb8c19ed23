package rowtype

import "golang.org/x/exp/maps"

// Intersect computes the field-wise intersection of two row types: only
// fields present (by name) in both survive, and nested rows recurse. Used
// to resolve Append, where every branch must agree on the common columns.
func Intersect(a, b *RowType) *RowType {
	if a == nil || b == nil {
		return NewRowType(nil, nil)
	}
	order := make([]string, 0, len(a.Order))
	fields := make(map[string]FieldType)
	for _, name := range a.Order {
		bf, ok := b.Fields[name]
		if !ok {
			continue
		}
		af := a.Fields[name]
		order = append(order, name)
		fields[name] = intersectField(af, bf)
	}
	return &RowType{Fields: fields, Order: order, Group: intersectGroup(a.Group, b.Group)}
}

func intersectField(a, b FieldType) FieldType {
	ar, aok := a.(*RowType)
	br, bok := b.(*RowType)
	if aok && bok {
		return Intersect(ar, br)
	}
	return Scalar
}

func intersectGroup(a, b GroupType) GroupType {
	ar, aok := a.(*RowType)
	br, bok := b.(*RowType)
	if aok && bok {
		return Intersect(ar, br)
	}
	if _, ok := a.(EmptyType); ok {
		return Empty
	}
	if _, ok := b.(EmptyType); ok {
		return Empty
	}
	return Ambiguous
}

// Union computes the field-wise union of two row types: fields from either
// side are kept (in a's order, then b's extras); a field present on both
// sides with mismatched kinds (scalar vs row) becomes Ambiguous; nested
// rows recurse. EmptyType unions absorb into the other side.
func Union(a, b *RowType) *RowType {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	order := append([]string(nil), a.Order...)
	fields := make(map[string]FieldType, len(a.Fields)+len(b.Fields))
	maps.Copy(fields, a.Fields)
	for _, name := range b.Order {
		bf := b.Fields[name]
		if af, ok := fields[name]; ok {
			fields[name] = unionField(af, bf)
			continue
		}
		order = append(order, name)
		fields[name] = bf
	}
	return &RowType{Fields: fields, Order: order, Group: unionGroup(a.Group, b.Group)}
}

func unionField(a, b FieldType) FieldType {
	ar, aok := a.(*RowType)
	br, bok := b.(*RowType)
	switch {
	case aok && bok:
		return Union(ar, br)
	case !aok && !bok:
		return Scalar
	default:
		return Ambiguous
	}
}

func unionGroup(a, b GroupType) GroupType {
	if _, ok := a.(EmptyType); ok {
		return b
	}
	if _, ok := b.(EmptyType); ok {
		return a
	}
	ar, aok := a.(*RowType)
	br, bok := b.(*RowType)
	if aok && bok {
		return Union(ar, br)
	}
	return Ambiguous
}

// Subset reports whether every field of a is present in b with a subtype:
// a scalar field must be scalar in b; a row field must be a row in b whose
// own fields are, recursively, a subset. Reflexive and transitive, so it
// defines a preorder over row types within one compilation.
func Subset(a, b *RowType) bool {
	if a == nil {
		return true
	}
	if b == nil {
		return false
	}
	for name, af := range a.Fields {
		bf, ok := b.Fields[name]
		if !ok {
			return false
		}
		ar, aIsRow := af.(*RowType)
		br, bIsRow := bf.(*RowType)
		if aIsRow != bIsRow {
			return false
		}
		if aIsRow && !Subset(ar, br) {
			return false
		}
	}
	return true
}
