// Package dissect provides a small structural pattern matcher over
// query.Node values. It offers a declarative Pattern value, built once and
// matched repeatedly, in place of long, hand-written
// "switch n := n.(type)" ladders. The compile passes do not use it; they
// switch on node types directly. There is no macro or code
// generation step: Pattern is just a tree of ordinary Go values, and Match
// is an ordinary recursive function.
package dissect

import "github.com/oxhq/funsql/query"

// Pattern describes a shape to test a query.Node against. The zero value
// (all fields unset) never matches anything; use the constructor helpers
// below to build one.
type Pattern struct {
	// test, when non-nil, decides whether a node matches; the constructor
	// helpers build it to perform the type assertion, match child
	// patterns, and record field-level binds. A nil test never matches.
	test func(n query.Node, b map[string]any) bool

	// bind, when non-empty, records the matched node itself under this
	// name in the bindings map (in addition to any field-level binds the
	// test performed).
	bind string
}

// Match attempts to match n against pattern, returning the accumulated
// bindings on success. A failed match returns (nil, false); the bindings
// map built up during a partial match that ultimately fails is discarded.
func Match(n query.Node, pattern Pattern) (map[string]any, bool) {
	b := make(map[string]any)
	if !matchInto(n, pattern, b) {
		return nil, false
	}
	return b, true
}

func matchInto(n query.Node, pattern Pattern, b map[string]any) bool {
	if pattern.test == nil {
		return false
	}
	if !pattern.test(n, b) {
		return false
	}
	if pattern.bind != "" {
		b[pattern.bind] = n
	}
	return true
}

// Any matches if n matches at least one of alternatives, using the
// bindings produced by the first alternative that succeeds.
func Any(alternatives ...Pattern) Pattern {
	return Pattern{
		test: func(n query.Node, b map[string]any) bool {
			for _, alt := range alternatives {
				trial := make(map[string]any)
				if matchInto(n, alt, trial) {
					for k, v := range trial {
						b[k] = v
					}
					return true
				}
			}
			return false
		},
	}
}

// Bind wraps pattern so that, on success, the matched node is additionally
// recorded in the bindings map under name.
func Bind(name string, pattern Pattern) Pattern {
	pattern.bind = name
	return pattern
}

// AnyNode matches any node unconditionally, optionally binding it.
func AnyNode() Pattern {
	return Pattern{test: func(query.Node, map[string]any) bool { return true }}
}

// Kind matches any node whose Kind() equals k.
func Kind(k query.Kind) Pattern {
	return Pattern{test: func(n query.Node, _ map[string]any) bool {
		return n != nil && n.Kind() == k
	}}
}

// Chain matches a tabular operator (head) whose ChainOver() node in turn
// matches tail — the structural idiom for peeling one operator off a
// pipeline and recursing into what remains.
func Chain(head func(query.Tabular, map[string]any) bool, tail Pattern) Pattern {
	return Pattern{
		test: func(n query.Node, b map[string]any) bool {
			t, ok := n.(query.Tabular)
			if !ok {
				return false
			}
			if !head(t, b) {
				return false
			}
			over := t.ChainOver()
			if over == nil {
				return tail.test == nil
			}
			return matchInto(over, tail, b)
		},
	}
}

// Nil matches only a nil node (used as Chain's tail for terminal From
// positions).
func Nil() Pattern {
	return Pattern{test: func(n query.Node, _ map[string]any) bool { return n == nil }}
}
