package dialect

import (
	"strings"
	"testing"

	"github.com/oxhq/funsql/clause"
)

func TestRenderPlainSelectStar(t *testing.T) {
	t.Parallel()
	sel := &clause.Select{From: &clause.From{Source: &clause.As{Arg: &clause.ID{Name: "person"}, Name: "person_1"}}}
	sql, vars := Render(sel, Postgres)
	if sql != `SELECT * FROM "person" AS "person_1"` {
		t.Errorf("unexpected SQL: %q", sql)
	}
	if len(vars) != 0 {
		t.Errorf("expected no vars, got %v", vars)
	}
}

func TestVarNumberingByDialect(t *testing.T) {
	t.Parallel()
	cond := &clause.Where{Condition: &clause.Fun{Name: ">=", Args: []clause.Node{
		&clause.ID{Name: "year_of_birth"}, &clause.Var{Name: "YEAR"},
	}}}
	sel := &clause.Select{From: &clause.From{Source: &clause.ID{Name: "person"}}, Where: cond}

	pgSQL, pgVars := Render(sel, Postgres)
	if !strings.Contains(pgSQL, "$1") {
		t.Errorf("expected $1 for postgres, got %q", pgSQL)
	}
	if len(pgVars) != 1 || pgVars[0] != "YEAR" {
		t.Errorf("expected vars=[YEAR], got %v", pgVars)
	}

	mySQL, myVars := Render(sel, MySQL)
	if !strings.Contains(mySQL, "?") {
		t.Errorf("expected ? for mysql, got %q", mySQL)
	}
	if len(myVars) != 1 {
		t.Errorf("expected one var, got %v", myVars)
	}

	sqliteSQL, _ := Render(sel, SQLite)
	if !strings.Contains(sqliteSQL, "?1") {
		t.Errorf("expected a numbered ?1 for sqlite, got %q", sqliteSQL)
	}
}

func TestRepeatedVarReferenceReusesPlaceholderOnNumberedDialects(t *testing.T) {
	t.Parallel()
	v := &clause.Var{Name: "YEAR"}
	fn := &clause.Fun{Name: "between", Args: []clause.Node{&clause.ID{Name: "year_of_birth"}, v, v}}
	sel := &clause.Select{Where: &clause.Where{Condition: fn}}

	pgSQL, pgVars := Render(sel, Postgres)
	if len(pgVars) != 1 || pgVars[0] != "YEAR" {
		t.Errorf("expected vars=[YEAR] (reused) for postgres, got %v", pgVars)
	}
	if strings.Count(pgSQL, "$1") != 2 {
		t.Errorf("expected both occurrences to render as $1, got %q", pgSQL)
	}
}

func TestRepeatedVarReferenceAppendsOnPositionalDialects(t *testing.T) {
	t.Parallel()
	v := &clause.Var{Name: "YEAR"}
	fn := &clause.Fun{Name: "between", Args: []clause.Node{&clause.ID{Name: "year_of_birth"}, v, v}}
	sel := &clause.Select{Where: &clause.Where{Condition: fn}}

	_, myVars := Render(sel, MySQL)
	if len(myVars) != 2 {
		t.Errorf("expected vars=[YEAR,YEAR] for mysql, got %v", myVars)
	}
}

func TestBooleanLiteralRenderingByDialect(t *testing.T) {
	t.Parallel()
	sel := &clause.Select{Columns: []clause.Node{&clause.Lit{Value: true}}}
	pgSQL, _ := Render(sel, Postgres)
	if !strings.Contains(pgSQL, "TRUE") {
		t.Errorf("expected TRUE literal for postgres, got %q", pgSQL)
	}
	mySQL, _ := Render(sel, MySQL)
	if !strings.Contains(mySQL, "(1=1)") {
		t.Errorf("expected (1=1) fallback for mysql, got %q", mySQL)
	}
}

func TestStringLiteralEscaping(t *testing.T) {
	t.Parallel()
	sel := &clause.Select{Columns: []clause.Node{&clause.Lit{Value: "O'Brien"}}}
	sql, _ := Render(sel, Postgres)
	if !strings.Contains(sql, "'O''Brien'") {
		t.Errorf("expected a doubled quote escape, got %q", sql)
	}
}

func TestLimitRenderingPerDialect(t *testing.T) {
	t.Parallel()
	lim := &clause.Limit{Count: &clause.Lit{Value: 10}, Offset: &clause.Lit{Value: 5}}
	sel := &clause.Select{Limit: lim}

	pgSQL, _ := Render(sel, Postgres)
	if !strings.Contains(pgSQL, "LIMIT 10") || !strings.Contains(pgSQL, "OFFSET 5") {
		t.Errorf("expected LIMIT/OFFSET for postgres, got %q", pgSQL)
	}

	mySQL, _ := Render(sel, MySQL)
	if !strings.Contains(mySQL, "LIMIT 5, 10") {
		t.Errorf("expected MySQL's LIMIT offset,count form, got %q", mySQL)
	}

	sqliteSQL, _ := Render(sel, SQLite)
	if !strings.Contains(sqliteSQL, "LIMIT 10") || !strings.Contains(sqliteSQL, "OFFSET 5") {
		t.Errorf("expected LIMIT ... OFFSET for sqlite, got %q", sqliteSQL)
	}
}

func TestJoinKindKeywords(t *testing.T) {
	t.Parallel()
	sel := &clause.Select{
		From: &clause.From{Source: &clause.ID{Name: "a"}},
		Joins: []*clause.Join{
			{Kind: clause.LeftJoin, Right: &clause.ID{Name: "b"}, On: &clause.Lit{Value: true}},
			{Kind: clause.CrossJoin, Right: &clause.ID{Name: "c"}},
		},
	}
	sql, _ := Render(sel, Postgres)
	if !strings.Contains(sql, "LEFT JOIN") {
		t.Errorf("expected LEFT JOIN, got %q", sql)
	}
	if !strings.Contains(sql, "CROSS JOIN") {
		t.Errorf("expected CROSS JOIN, got %q", sql)
	}
}

func TestGroupingSetsRendering(t *testing.T) {
	t.Parallel()
	group := &clause.Group{
		By:   []clause.Node{&clause.ID{Name: "a"}, &clause.ID{Name: "b"}},
		Sets: [][]int{{0}, {1}, {}},
	}
	sel := &clause.Select{Group: group}
	sql, _ := Render(sel, Postgres)
	if !strings.Contains(sql, "GROUPING SETS") {
		t.Errorf("expected GROUPING SETS, got %q", sql)
	}
}

func TestWithRecursiveAnnotationHonorsDialectFlag(t *testing.T) {
	t.Parallel()
	with := &clause.With{
		Recursive: true,
		Names:     []string{"c"},
		Bodies:    []clause.Node{&clause.Select{Columns: []clause.Node{&clause.Lit{Value: 1}}}},
		Main:      &clause.Select{From: &clause.From{Source: &clause.ID{Name: "c"}}},
	}
	pgSQL, _ := Render(with, Postgres)
	if !strings.HasPrefix(pgSQL, "WITH RECURSIVE ") {
		t.Errorf("expected WITH RECURSIVE for postgres, got %q", pgSQL)
	}
	sqlServerSQL, _ := Render(with, SQLServer)
	if strings.Contains(sqlServerSQL, "RECURSIVE") {
		t.Errorf("expected no RECURSIVE keyword for sqlserver, got %q", sqlServerSQL)
	}
}

func TestInvalidFunctionNamePanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a function name with unsafe characters")
		}
	}()
	fn := &clause.Fun{Name: "evil; DROP TABLE x", Args: []clause.Node{&clause.Lit{Value: 1}}}
	Render(&clause.Select{Columns: []clause.Node{fn}}, Postgres)
}
