// CLI demonstrating the FunSQL pipeline end to end: build a query tree
// with the query fluent builder, render it against a dialect, and
// optionally execute it against DATABASE_URL.
//
// Configuration (env vars):
//
//	FUNSQL_ENGINE=postgresql|mysql|sqlite  (default postgresql)
//	DATABASE_URL=<dsn>                      (optional, auto-connects if set)
//
// Usage:
//
//	go run ./cmd/funsql <table> <column...>
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oxhq/funsql"
	"github.com/oxhq/funsql/bridge"
	"github.com/oxhq/funsql/catalog"
	"github.com/oxhq/funsql/dialect"
	"github.com/oxhq/funsql/query"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: funsql <table> <column...>")
		os.Exit(1)
	}
	table, columns := os.Args[1], os.Args[2:]

	engine := strings.ToLower(strings.TrimSpace(os.Getenv("FUNSQL_ENGINE")))
	if engine == "" {
		engine = "postgresql"
	}
	d, ok := dialect.ByName(engine)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown engine %q\n", engine)
		os.Exit(1)
	}

	q := buildQuery(table, columns)

	cat := catalog.New(d, catalog.NewSQLTable(table, nil, columns))

	ctx := context.Background()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		conn, err := bridge.Connect(engine, dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = conn.Close() }()

		if reflected, err := catalog.Reflect(ctx, conn.DB(), engine); err == nil {
			if _, err := reflected.Table(table); err == nil {
				cat = reflected
			}
		}

		runQuery(ctx, conn, q, cat)
		return
	}

	renderOnly(q, cat)
}

func buildQuery(table string, columns []string) query.Tabular {
	args := make([]query.Scalar, len(columns))
	for i, c := range columns {
		args[i] = query.Col(c)
	}
	return query.From(table).Select(args...).Build()
}

func renderOnly(q query.Tabular, cat *catalog.SQLCatalog) {
	s, err := funsql.Render(q, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(s.Raw)
	if len(s.Vars) > 0 {
		fmt.Println("vars:", strings.Join(s.Vars, ", "))
	}
}

func runQuery(ctx context.Context, conn *bridge.Conn, q query.Tabular, cat *catalog.SQLCatalog) {
	s, err := funsql.Render(q, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	rows, err := conn.Execute(ctx, s, map[string]any{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "execute: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rows.Close() }()

	out, err := formatRows(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "format: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

