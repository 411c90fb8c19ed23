package dissect

import "github.com/oxhq/funsql/query"

// The helpers below give compile's passes a typed, declarative way to
// dispatch on a specific tabular or scalar shape without writing
// "n.(type)" at every call site. Each returns a Pattern usable directly
// with Match, Any, or as the head/tail of Chain.

// IsWhere matches *query.Where, optionally binding the matched node under
// bind (empty string skips binding).
func IsWhere(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.Where)
			return ok
		},
	}
}

// IsSelect matches *query.Select.
func IsSelect(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.Select)
			return ok
		},
	}
}

// IsGroup matches *query.Group.
func IsGroup(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.Group)
			return ok
		},
	}
}

// IsJoin matches *query.Join.
func IsJoin(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.Join)
			return ok
		},
	}
}

// IsFrom matches *query.From.
func IsFrom(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.From)
			return ok
		},
	}
}

// IsGet matches *query.Get.
func IsGet(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.Get)
			return ok
		},
	}
}

// IsAgg matches *query.Agg.
func IsAgg(bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			_, ok := n.(*query.Agg)
			return ok
		},
	}
}

// IsFun matches *query.Fun, further requiring Name == name when name is
// non-empty.
func IsFun(name, bind string) Pattern {
	return Pattern{
		bind: bind,
		test: func(n query.Node, b map[string]any) bool {
			f, ok := n.(*query.Fun)
			if !ok {
				return false
			}
			return name == "" || f.Name == name
		},
	}
}

// As attempts the type assertion dissect's callers would otherwise repeat
// after a successful Match: look up name in bindings and assert it to T.
func As[T query.Node](bindings map[string]any, name string) (T, bool) {
	var zero T
	v, ok := bindings[name]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
