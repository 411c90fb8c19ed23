package compile

import (
	"testing"

	"github.com/oxhq/funsql/clause"
	"github.com/oxhq/funsql/query"
)

func compileFull(t *testing.T, n query.Node) clause.Node {
	t.Helper()
	tree, err := Annotate(n)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if err := Resolve(tree, testCatalog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := Link(tree); err != nil {
		t.Fatalf("Link: %v", err)
	}
	c, err := Translate(tree, testCatalog())
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	return c
}

// wrappedSelect returns the subquery that a Select wraps its base in.
func wrappedSelect(t *testing.T, sel *clause.Select) *clause.Select {
	t.Helper()
	if sel.From == nil {
		t.Fatal("expected a From clause")
	}
	as, ok := sel.From.Source.(*clause.As)
	if !ok {
		t.Fatalf("expected From.Source to be *clause.As, got %T", sel.From.Source)
	}
	inner, ok := as.Arg.(*clause.Select)
	if !ok {
		t.Fatalf("expected the aliased source to be a *clause.Select, got %T", as.Arg)
	}
	return inner
}

func TestTranslateFromTableProducesAliasedFrom(t *testing.T) {
	t.Parallel()
	n := query.From("person").SelectNamed(map[int]string{0: "id"}, query.Col("id")).Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	// The Select wraps the table's SELECT in a subquery; the table sits there.
	inner := wrappedSelect(t, sel)
	if inner.From == nil {
		t.Fatal("expected a From clause")
	}
	as, ok := inner.From.Source.(*clause.As)
	if !ok {
		t.Fatalf("expected From.Source to be *clause.As, got %T", inner.From.Source)
	}
	id, ok := as.Arg.(*clause.ID)
	if !ok || id.Name != "person" {
		t.Errorf("expected the aliased source to be table person, got %#v", as.Arg)
	}
}

func TestTranslateWhereMergesIntoSelectWhere(t *testing.T) {
	t.Parallel()
	n := query.From("t").
		SelectNamed(map[int]string{0: "id", 1: "active"}, query.Col("id"), query.Col("active")).
		Where(query.Col("active")).
		Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	if sel.Where == nil {
		t.Fatal("expected a Where clause")
	}
}

func TestTranslateGroupProducesGroupClauseWhenAggregated(t *testing.T) {
	t.Parallel()
	agg := &query.Agg{Name: "count"}
	n := query.From("orders").
		GroupNamed("g", map[int]string{0: "status"}, query.Col("status")).
		SelectNamed(map[int]string{0: "status", 1: "cnt"}, query.Col("status"), agg).
		Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	// The Select wraps the grouped SELECT in a subquery; GROUP BY sits there.
	if wrappedSelect(t, sel).Group == nil {
		t.Error("expected a Group clause when an aggregate is present")
	}
}

func TestTranslateGroupWithNoAggregateIsDistinct(t *testing.T) {
	t.Parallel()
	n := query.From("orders").
		GroupNamed("g", map[int]string{0: "status"}, query.Col("status")).
		Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	if sel.Group != nil {
		t.Error("expected no Group clause without an aggregate")
	}
	if !sel.Distinct {
		t.Error("expected Distinct to stand in for a keys-only group")
	}
}

func TestTranslateJoinAppendsJoinClause(t *testing.T) {
	t.Parallel()
	left := query.From("person").SelectNamed(map[int]string{0: "id"}, query.Col("id"))
	right := query.From("pet").SelectNamed(map[int]string{0: "pet_id"}, query.Col("pet_id")).Build()
	n := left.Join(right, query.Col("id"), query.InnerJoin).
		SelectNamed(map[int]string{0: "id", 1: "pet_id"}, query.Col("id"), query.Col("pet_id")).
		Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	// The Select wraps the joined SELECT in a subquery; the JOIN sits there.
	joined := wrappedSelect(t, sel)
	if len(joined.Joins) != 1 {
		t.Fatalf("expected 1 join, got %d", len(joined.Joins))
	}
	if joined.Joins[0].Kind != clause.InnerJoin {
		t.Errorf("expected InnerJoin, got %v", joined.Joins[0].Kind)
	}
}

func TestTranslateLimitSetsLimitClause(t *testing.T) {
	t.Parallel()
	n := query.From("t").
		SelectNamed(map[int]string{0: "id"}, query.Col("id")).
		Limit(10).
		Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	if sel.Limit == nil || sel.Limit.Count == nil {
		t.Fatal("expected a Limit.Count clause")
	}
	lit, ok := sel.Limit.Count.(*clause.Lit)
	if !ok || lit.Value != 10 {
		t.Errorf("expected limit literal 10, got %#v", sel.Limit.Count)
	}
}

func TestTranslateOrderSetsOrderClauseWithDirection(t *testing.T) {
	t.Parallel()
	n := query.From("t").
		SelectNamed(map[int]string{0: "id"}, query.Col("id")).
		Order(query.SortDesc(query.Col("id"))).
		Build()
	c := compileFull(t, n)
	sel, ok := c.(*clause.Select)
	if !ok {
		t.Fatalf("expected *clause.Select, got %T", c)
	}
	if sel.Order == nil || len(sel.Order.By) != 1 {
		t.Fatal("expected one Order.By entry")
	}
	if sel.Order.By[0].Dir != clause.SortDesc {
		t.Errorf("expected SortDesc, got %v", sel.Order.By[0].Dir)
	}
}

func TestTranslateAppendProducesUnion(t *testing.T) {
	t.Parallel()
	base := query.From("a").SelectNamed(map[int]string{0: "id"}, query.Col("id"))
	branch := query.From("b").SelectNamed(map[int]string{0: "id"}, query.Col("id")).Build()
	n := base.Append(branch).Build()
	c := compileFull(t, n)
	if _, ok := c.(*clause.Union); !ok {
		t.Fatalf("expected *clause.Union, got %T", c)
	}
}

func TestTranslateIterateProducesRecursiveWith(t *testing.T) {
	t.Parallel()
	base := query.From("edge").SelectNamed(map[int]string{0: "id"}, query.Col("id"))
	self := &query.From{Source: query.FromIterateSelf{}}
	iterator := query.FromBuilder(self).SelectNamed(map[int]string{0: "id"}, query.Col("id")).Build()
	n := base.Iterate(iterator).Build()
	c := compileFull(t, n)
	with, ok := c.(*clause.With)
	if !ok {
		t.Fatalf("expected *clause.With, got %T", c)
	}
	if !with.Recursive {
		t.Error("expected Recursive to be set for an Iterate-derived CTE")
	}
	if _, ok := with.Main.(*clause.Select); !ok {
		t.Errorf("expected Main to select from the recursive CTE, got %T", with.Main)
	}
}

func TestAliasAllocatorDedupesRepeatedBaseNames(t *testing.T) {
	t.Parallel()
	a := newAliasAllocator()
	first := a.alloc("person")
	second := a.alloc("person")
	if first == second {
		t.Errorf("expected distinct aliases for repeated base name, got %q twice", first)
	}
	if first != "person" {
		t.Errorf("expected the first alloc to return the bare base name, got %q", first)
	}
}
