package compile

import (
	"testing"

	"github.com/oxhq/funsql/query"
)

func annotateResolveLink(t *testing.T, n query.Node) *Tree {
	t.Helper()
	tree := annotateAndResolve(t, n)
	if err := Link(tree); err != nil {
		t.Fatalf("Link: %v", err)
	}
	return tree
}

func TestLinkSeedsRootWithOneRefPerField(t *testing.T) {
	t.Parallel()
	n := query.From("t").SelectNamed(map[int]string{0: "id", 1: "name"}, query.Col("id"), query.Col("name")).Build()
	tree := annotateResolveLink(t, n)
	root := tree.box(tree.Root)
	if len(root.Refs) != 2 {
		t.Fatalf("expected 2 seeded refs, got %d", len(root.Refs))
	}
}

func TestLinkWherePropagatesConditionAndPassthroughRefs(t *testing.T) {
	t.Parallel()
	n := query.From("t").
		SelectNamed(map[int]string{0: "id", 1: "active"}, query.Col("id"), query.Col("active")).
		Where(query.Col("active")).
		Build()
	tree := annotateResolveLink(t, n)

	// Where is the root; its Over is the Select box, which must have
	// received both the propagated "id" ref and the "active" condition ref.
	where := tree.box(tree.Root)
	sel := tree.box(where.Over)
	var names []string
	for _, ref := range sel.Refs {
		if g, ok := ref.(*Get); ok {
			names = append(names, g.Name)
		}
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["id"] || !found["active"] {
		t.Errorf("expected select box to receive both id and active refs, got %v", names)
	}
}

func TestLinkUndefinedNameIsReferenceError(t *testing.T) {
	t.Parallel()
	n := query.From("t").SelectNamed(map[int]string{0: "nonexistent"}, query.Col("nonexistent")).Build()
	tree, err := Annotate(n)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if err := Resolve(tree, testCatalog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	err = Link(tree)
	if err == nil {
		t.Fatal("expected a reference error for an undefined column")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != Reference || cerr.Code != UndefinedName {
		t.Errorf("expected Reference/UndefinedName, got %#v", err)
	}
}

func TestLinkGroupRejectsBareNonKeyNonAggregateRef(t *testing.T) {
	t.Parallel()
	// Selecting a raw (non-grouped, non-aggregate) column over a Group is
	// invalid SQL — Link must reject it.
	n := query.From("orders").
		GroupNamed("g", map[int]string{0: "status"}, query.Col("status")).
		SelectNamed(map[int]string{0: "amount"}, query.Col("amount")).
		Build()
	tree, err := Annotate(n)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if err := Resolve(tree, testCatalog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	err = Link(tree)
	if err == nil {
		t.Fatal("expected a reference error rejecting the bare non-key column")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("expected a *Error, got %#v", err)
	}
}

func TestLinkGroupAllowsAggregateAndGroupKeyRefs(t *testing.T) {
	t.Parallel()
	agg := &query.Agg{Name: "count"}
	n := query.From("orders").
		GroupNamed("g", map[int]string{0: "status"}, query.Col("status")).
		SelectNamed(map[int]string{0: "status", 1: "cnt"}, query.Col("status"), agg).
		Build()
	tree := annotateResolveLink(t, n)
	// No error means both the group key and the aggregate were accepted.
	if tree.Root == 0 {
		t.Fatal("expected a resolved root")
	}
}

func TestLinkJoinRoutesRefsByRowType(t *testing.T) {
	t.Parallel()
	left := query.From("person").SelectNamed(map[int]string{0: "id"}, query.Col("id"))
	right := query.From("pet").SelectNamed(map[int]string{0: "pet_id"}, query.Col("pet_id")).Build()
	n := left.Join(right, query.Col("id"), query.InnerJoin).
		SelectNamed(map[int]string{0: "id", 1: "pet_id"}, query.Col("id"), query.Col("pet_id")).
		Build()

	tree := annotateResolveLink(t, n)
	sel := tree.box(tree.Root)
	join := tree.box(sel.Over)
	leftBox := tree.box(join.Over)
	rightBox := tree.box(join.Joinee)

	hasRef := func(b *Box, name string) bool {
		for _, r := range b.Refs {
			if g, ok := r.(*Get); ok && g.Name == name {
				return true
			}
		}
		return false
	}
	if !hasRef(leftBox, "id") {
		t.Error("expected id to route to the left box")
	}
	if !hasRef(rightBox, "pet_id") {
		t.Error("expected pet_id to route to the right box")
	}
}

func TestLinkAsRequiresMatchingAlias(t *testing.T) {
	t.Parallel()
	// p.id with a mismatched alias ("q" instead of "p") must fail.
	n := query.From("person").As("p").
		Where(query.GetOver(query.Col("q"), "id")).
		Build()
	tree, err := Annotate(n)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if err := Resolve(tree, testCatalog()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	err = Link(tree)
	if err == nil {
		t.Fatal("expected a reference error for a mismatched alias")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != Reference {
		t.Errorf("expected a Reference error, got %#v", err)
	}
}

func TestLinkAsAcceptsMatchingAliasAndUnwrapsInner(t *testing.T) {
	t.Parallel()
	n := query.From("person").As("p").
		Where(query.GetOver(query.Col("p"), "id")).
		Build()
	tree := annotateResolveLink(t, n)
	where := tree.box(tree.Root)
	asBox := tree.box(where.Over)
	person := tree.box(asBox.Over)

	found := false
	for _, r := range person.Refs {
		if g, ok := r.(*Get); ok && g.Name == "id" {
			found = true
		}
	}
	if !found {
		t.Error("expected the underlying person box to receive the unwrapped id ref")
	}
}
