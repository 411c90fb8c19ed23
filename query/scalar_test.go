package query

import "testing"

func TestColBuildsUnqualifiedGet(t *testing.T) {
	t.Parallel()
	g := Col("id")
	if g.Name != "id" {
		t.Errorf("expected name id, got %q", g.Name)
	}
	if g.Over != nil {
		t.Error("expected unqualified Col to have nil Over")
	}
}

func TestGetOverQualifies(t *testing.T) {
	t.Parallel()
	g := GetOver(Col("p"), "id")
	if g.Name != "id" {
		t.Errorf("expected outer name id, got %q", g.Name)
	}
	qualifier, ok := g.Over.(*Get)
	if !ok {
		t.Fatalf("expected Over to be *Get, got %T", g.Over)
	}
	if qualifier.Name != "p" {
		t.Errorf("expected qualifier name p, got %q", qualifier.Name)
	}
}

func TestGetOverDottedPathNestsOutermostFirst(t *testing.T) {
	t.Parallel()
	// p.address.city: the field being fetched is "city"; "address" then
	// "p" are qualifiers, narrowing from the inside out via nested Over.
	g := GetOver(GetOver(Col("p"), "address"), "city")
	if g.Name != "city" {
		t.Errorf("expected outermost name city, got %q", g.Name)
	}
	mid, ok := g.Over.(*Get)
	if !ok {
		t.Fatalf("expected Over to be *Get, got %T", g.Over)
	}
	if mid.Name != "address" {
		t.Errorf("expected middle name address, got %q", mid.Name)
	}
	inner, ok := mid.Over.(*Get)
	if !ok {
		t.Fatalf("expected innermost Over to be *Get, got %T", mid.Over)
	}
	if inner.Name != "p" {
		t.Errorf("expected innermost name p, got %q", inner.Name)
	}
}

func TestNewFunAndNewAgg(t *testing.T) {
	t.Parallel()
	fn := NewFun("+", Col("a"), NewLit(1))
	if fn.Name != "+" || len(fn.Args) != 2 {
		t.Errorf("unexpected Fun: %+v", fn)
	}

	agg := NewAgg("sum", Col("total"))
	if agg.Name != "sum" || agg.Distinct || agg.Over != nil {
		t.Errorf("unexpected Agg: %+v", agg)
	}
}

func TestNewLitWrapsValue(t *testing.T) {
	t.Parallel()
	l := NewLit(42)
	if l.Value != 42 {
		t.Errorf("expected value 42, got %v", l.Value)
	}
}

func TestNewVar(t *testing.T) {
	t.Parallel()
	v := NewVar("threshold")
	if v.Name != "threshold" {
		t.Errorf("expected name threshold, got %q", v.Name)
	}
}

func TestSortAscDesc(t *testing.T) {
	t.Parallel()
	asc := SortAsc(Col("name"))
	if asc.Dir != Asc {
		t.Errorf("expected Asc, got %v", asc.Dir)
	}
	desc := SortDesc(Col("name"))
	if desc.Dir != Desc {
		t.Errorf("expected Desc, got %v", desc.Dir)
	}
}

func TestLabelWrapsScalarAs(t *testing.T) {
	t.Parallel()
	id := Col("id")
	l := Label(id, "person_id")
	if l.Name != "person_id" {
		t.Errorf("expected name person_id, got %q", l.Name)
	}
	if l.Arg != Scalar(id) {
		t.Error("expected Arg to be the wrapped scalar")
	}
}

func TestScalarKindsAreScalarKind(t *testing.T) {
	t.Parallel()
	scalars := []Scalar{
		Col("a"),
		NewFun("+", Col("a")),
		NewAgg("count"),
		NewLit(1),
		NewVar("x"),
		SortAsc(Col("a")),
		Label(Col("a"), "b"),
	}
	for _, s := range scalars {
		if s.Kind() != ScalarKind {
			t.Errorf("expected ScalarKind for %T, got %v", s, s.Kind())
		}
	}
}
