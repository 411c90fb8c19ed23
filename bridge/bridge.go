// Package bridge connects a funsql.SQLString to a live database and runs
// it, generalizing the teacher's cmd/repl/db.go connection handling to
// accept a rendered, packed query instead of a raw string. See
// SPEC_FULL.md §13.
package bridge

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/oxhq/funsql"
)

var driverName = map[string]string{
	"postgresql": "pgx",
	"mysql":      "mysql",
	"sqlite":     "sqlite",
}

// Conn is a live connection to one engine, opened for a funsql dialect
// name ("postgresql", "mysql", "sqlite").
type Conn struct {
	db     *sql.DB
	engine string
}

// Connect opens and pings a database for engine/dsn, mirroring the
// teacher's connect().
func Connect(engine, dsn string) (*Conn, error) {
	driver, ok := driverName[engine]
	if !ok {
		return nil, fmt.Errorf("bridge: no driver for engine %q", engine)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("bridge: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bridge: ping: %w", err)
	}
	return &Conn{db: db, engine: engine}, nil
}

// DB exposes the underlying *sql.DB, e.g. for catalog.Reflect.
func (c *Conn) DB() *sql.DB { return c.db }

// Prepare prepares s's raw SQL for repeated execution.
func (c *Conn) Prepare(ctx context.Context, s *funsql.SQLString) (*sql.Stmt, error) {
	stmt, err := c.db.PrepareContext(ctx, s.Raw)
	if err != nil {
		return nil, fmt.Errorf("bridge: prepare: %w", err)
	}
	return stmt, nil
}

// Execute packs params against s.Vars and runs the query, returning raw
// *sql.Rows for the caller to scan.
func (c *Conn) Execute(ctx context.Context, s *funsql.SQLString, params map[string]any) (*sql.Rows, error) {
	args, err := funsql.Pack(s, params)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, s.Raw, args...)
	if err != nil {
		return nil, fmt.Errorf("bridge: query: %w", err)
	}
	return rows, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.db.Close()
}
