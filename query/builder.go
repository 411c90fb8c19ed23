package query

// Builder is a fluent wrapper around a Tabular pipeline, grounded on the
// teacher's SelectManager chaining style but returning a new immutable
// node at every step instead of mutating a shared core.
type Builder struct {
	node Tabular
}

// From starts a new pipeline reading the named table.
func From(tableName string) *Builder {
	return &Builder{node: NewFrom(tableName)}
}

// FromBuilder wraps an already-built Tabular node.
func FromBuilder(n Tabular) *Builder {
	return &Builder{node: n}
}

// Build returns the underlying Tabular node.
func (b *Builder) Build() Tabular {
	return b.node
}

func (b *Builder) Where(conds ...Scalar) *Builder {
	cond := combineAnd(conds)
	return &Builder{node: &Where{Over: b.node, Condition: cond}}
}

func (b *Builder) Select(args ...Scalar) *Builder {
	return &Builder{node: &Select{Over: b.node, Args: args}}
}

func (b *Builder) SelectNamed(labels map[int]string, args ...Scalar) *Builder {
	return &Builder{node: &Select{Over: b.node, Args: args, LabelMap: labels}}
}

func (b *Builder) Define(labels map[int]string, args ...Scalar) *Builder {
	return &Builder{node: &Define{Over: b.node, Args: args, LabelMap: labels}}
}

func (b *Builder) Group(by ...Scalar) *Builder {
	return &Builder{node: &Group{Over: b.node, By: by}}
}

func (b *Builder) GroupNamed(name string, labels map[int]string, by ...Scalar) *Builder {
	return &Builder{node: &Group{Over: b.node, By: by, Name: name, LabelMap: labels}}
}

func (b *Builder) Partition(name string, by ...Scalar) *Builder {
	return &Builder{node: &Partition{Over: b.node, By: by, Name: name}}
}

func (b *Builder) Join(joinee Tabular, on Scalar, jt JoinType) *Builder {
	return &Builder{node: &Join{Over: b.node, Joinee: joinee, On: on, Type: jt}}
}

func (b *Builder) LeftJoin(joinee Tabular, on Scalar) *Builder {
	return b.Join(joinee, on, LeftJoin)
}

func (b *Builder) CrossJoin(joinee Tabular) *Builder {
	return &Builder{node: &Join{Over: b.node, Joinee: joinee, Type: CrossJoin}}
}

func (b *Builder) Append(args ...Tabular) *Builder {
	return &Builder{node: &Append{Over: b.node, Args: args}}
}

func (b *Builder) Order(by ...Scalar) *Builder {
	return &Builder{node: &Order{Over: b.node, By: by}}
}

func (b *Builder) Limit(n int) *Builder {
	return &Builder{node: &Limit{Over: b.node, Count: &n}}
}

func (b *Builder) Offset(n int) *Builder {
	return &Builder{node: &Limit{Over: b.node, Offset: &n}}
}

func (b *Builder) As(name string) *Builder {
	return &Builder{node: &As{Over: b.node, Name: name}}
}

func (b *Builder) Bind(labels map[int]string, args ...Scalar) *Builder {
	return &Builder{node: &Bind{Over: b.node, Args: args, LabelMap: labels}}
}

func (b *Builder) With(labels map[int]string, args ...Tabular) *Builder {
	return &Builder{node: &With{Over: b.node, Args: args, LabelMap: labels}}
}

func (b *Builder) Iterate(iterator Tabular) *Builder {
	return &Builder{node: &Iterate{Over: b.node, Iterator: iterator}}
}

// combineAnd folds multiple Where conditions into a single Fun("and", ...)
// node, mirroring how the teacher's SelectManager.Where accumulates
// multiple calls for AND-combination at render time.
func combineAnd(conds []Scalar) Scalar {
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return &Fun{Name: "and", Args: conds}
	}
}
