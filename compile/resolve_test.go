package compile

import (
	"testing"

	"github.com/oxhq/funsql/catalog"
	"github.com/oxhq/funsql/dialect"
	"github.com/oxhq/funsql/query"
	"github.com/oxhq/funsql/rowtype"
)

// testCatalog covers the tables referenced across the compile package's
// tests, so FromTable boxes resolve to real columns instead of the
// catalog-less opaque row.
func testCatalog() *catalog.SQLCatalog {
	return catalog.New(dialect.Postgres,
		catalog.NewSQLTable("t", nil, []string{"id", "a", "b", "active", "name"}),
		catalog.NewSQLTable("orders", nil, []string{"status", "amount"}),
		catalog.NewSQLTable("person", nil, []string{"id", "name"}),
		catalog.NewSQLTable("pet", nil, []string{"pet_id", "name"}),
		catalog.NewSQLTable("a", nil, []string{"id", "extra_a"}),
		catalog.NewSQLTable("b", nil, []string{"id", "extra_b"}),
		catalog.NewSQLTable("edge", nil, []string{"id"}),
		catalog.NewSQLTable("events", nil, []string{"id", "user_id"}),
	)
}

func annotateAndResolve(t *testing.T, n query.Node) *Tree {
	t.Helper()
	tree, err := Annotate(n)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if err := Resolve(tree, testCatalog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return tree
}

func TestResolveFromNothingIsEmptyBox(t *testing.T) {
	t.Parallel()
	tree := annotateAndResolve(t, &query.From{Source: query.FromNothing{}})
	root := tree.box(tree.Root)
	if root.Type != rowtype.EmptyBox {
		t.Error("expected FromNothing to resolve to rowtype.EmptyBox")
	}
}

func TestResolveFromValuesDerivesFieldsFromColumns(t *testing.T) {
	t.Parallel()
	n := &query.From{Source: query.FromValues{
		Rows:    [][]query.Scalar{{query.NewLit(1), query.NewLit("a")}},
		Columns: []string{"id", "name"},
	}}
	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("id"); !ok {
		t.Error("expected id field")
	}
	if _, ok := root.Type.Row.Field("name"); !ok {
		t.Error("expected name field")
	}
}

func TestResolveSelectUsesLabelsOrPositionalNames(t *testing.T) {
	t.Parallel()
	n := query.From("t").SelectNamed(map[int]string{0: "x"}, query.Col("a"), query.Col("b")).Build()
	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("x"); !ok {
		t.Error("expected labeled field x")
	}
	if _, ok := root.Type.Row.Field("col_2"); !ok {
		t.Error("expected positional fallback name col_2 for the unlabeled second arg")
	}
}

func TestResolveWhereOrderLimitPassThroughType(t *testing.T) {
	t.Parallel()
	n := query.From("t").
		SelectNamed(map[int]string{0: "id"}, query.Col("id")).
		Where(query.Col("id")).
		Order(query.SortAsc(query.Col("id"))).
		Limit(5).
		Build()
	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	sel := tree.box(root.Over) // Limit -> Order -> Where -> Select
	_ = sel
	if _, ok := root.Type.Row.Field("id"); !ok {
		t.Error("expected Limit's type to pass through to the labeled Select field")
	}
}

func TestResolveGroupSetsGroupToPreAggregationRow(t *testing.T) {
	t.Parallel()
	n := query.From("orders").GroupNamed("g", map[int]string{0: "status"}, query.Col("status")).Build()
	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("status"); !ok {
		t.Error("expected grouped row to expose the group-by field")
	}
	if root.Type.Row.Group == rowtype.GroupType(rowtype.Empty) {
		t.Error("expected Group's Group field to carry the pre-aggregation row, not Empty")
	}
}

func TestResolveJoinUnionsBothSidesTypes(t *testing.T) {
	t.Parallel()
	left := query.From("person").SelectNamed(map[int]string{0: "id"}, query.Col("id"))
	right := query.From("pet").SelectNamed(map[int]string{0: "pet_id"}, query.Col("pet_id")).Build()
	n := left.Join(right, query.Col("id"), query.InnerJoin).Build()

	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("id"); !ok {
		t.Error("expected joined row to expose left's id field")
	}
	if _, ok := root.Type.Row.Field("pet_id"); !ok {
		t.Error("expected joined row to expose right's pet_id field")
	}
}

func TestResolveAppendIntersectsBranchTypes(t *testing.T) {
	t.Parallel()
	base := query.From("a").SelectNamed(map[int]string{0: "id", 1: "extra_a"}, query.Col("id"), query.Col("extra_a"))
	branch := query.From("b").SelectNamed(map[int]string{0: "id", 1: "extra_b"}, query.Col("id"), query.Col("extra_b")).Build()
	n := base.Append(branch).Build()

	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("id"); !ok {
		t.Error("expected common field id to survive the intersection")
	}
	if _, ok := root.Type.Row.Field("extra_a"); ok {
		t.Error("expected branch-only field extra_a to be dropped by intersection")
	}
}

func TestResolveAsWrapsRowUnderAliasName(t *testing.T) {
	t.Parallel()
	n := query.From("person").As("p").Build()
	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("p"); !ok {
		t.Error("expected the aliased row to be nested under field p")
	}
}

func TestResolveIterateReachesFixpoint(t *testing.T) {
	t.Parallel()
	base := query.From("edge").SelectNamed(map[int]string{0: "id"}, query.Col("id"))
	self := &query.From{Source: query.FromIterateSelf{}}
	iterator := query.FromBuilder(self).SelectNamed(map[int]string{0: "id"}, query.Col("id")).Build()
	n := base.Iterate(iterator).Build()

	tree := annotateAndResolve(t, n)
	root := tree.box(tree.Root)
	if _, ok := root.Type.Row.Field("id"); !ok {
		t.Error("expected the recursive CTE's resolved type to retain field id")
	}
}

func TestResolveUnhandledBoxKindIsIllFormed(t *testing.T) {
	t.Parallel()
	tree := newTree()
	b := tree.newBox(BoxKind(999), nil)
	tree.Root = b.ID
	err := Resolve(tree, nil)
	if err == nil {
		t.Fatal("expected an error for an unhandled box kind")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != IllFormed {
		t.Errorf("expected IllFormed, got %#v", err)
	}
}
