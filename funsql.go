// Package funsql compiles a query.Node tree into dialect-specific SQL,
// running the four compile passes and serializing the result. See
// SPEC_FULL.md §12.
package funsql

import (
	"fmt"

	"github.com/oxhq/funsql/catalog"
	"github.com/oxhq/funsql/clause"
	"github.com/oxhq/funsql/compile"
	"github.com/oxhq/funsql/dialect"
	"github.com/oxhq/funsql/query"
)

// SQLString is a fully rendered query: the raw SQL text, the ordered list
// of named variables it references (for Pack), and the table shape the
// root SELECT produces.
type SQLString struct {
	Raw   string
	Vars  []string
	Shape *catalog.SQLTable
}

// Render runs Annotate, Resolve, Link, and Translate over n, then
// serializes the resulting clause tree under cat's dialect. Renders for an
// identical node tree are served from cat's bounded cache.
func Render(n query.Node, cat *catalog.SQLCatalog) (*SQLString, error) {
	if cat == nil {
		return nil, fmt.Errorf("funsql: render requires a non-nil catalog")
	}
	v, err := cat.RenderCached(n, func() (any, error) {
		return render(n, cat)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SQLString), nil
}

func render(n query.Node, cat *catalog.SQLCatalog) (*SQLString, error) {
	tree, err := compile.Annotate(n)
	if err != nil {
		return nil, fmt.Errorf("funsql: annotate: %w", err)
	}
	if err := compile.Resolve(tree, cat); err != nil {
		return nil, fmt.Errorf("funsql: resolve: %w", err)
	}
	if err := compile.Link(tree); err != nil {
		return nil, fmt.Errorf("funsql: link: %w", err)
	}
	c, err := compile.Translate(tree, cat)
	if err != nil {
		return nil, fmt.Errorf("funsql: translate: %w", err)
	}

	raw, vars := dialect.Render(c, cat.Dialect)
	return &SQLString{Raw: raw, Vars: vars, Shape: shapeOf(c, cat)}, nil
}

// shapeOf best-effort identifies the catalog table the root SELECT's shape
// matches, when the outermost clause is a plain table scan alias.
func shapeOf(n clause.Node, cat *catalog.SQLCatalog) *catalog.SQLTable {
	sel, ok := n.(*clause.Select)
	if !ok || sel.From == nil {
		return nil
	}
	as, ok := sel.From.Source.(*clause.As)
	if !ok {
		return nil
	}
	id, ok := as.Arg.(*clause.ID)
	if !ok {
		return nil
	}
	t, err := cat.Table(id.Name)
	if err != nil {
		return nil
	}
	return t
}

// Pack converts named params into positional form per SQLString.Vars: one
// element per occurrence of a name, erroring on any name with no matching
// params entry.
func Pack(s *SQLString, params map[string]any) ([]any, error) {
	out := make([]any, len(s.Vars))
	for i, name := range s.Vars {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("funsql: pack: no value for variable %q", name)
		}
		out[i] = v
	}
	return out, nil
}
