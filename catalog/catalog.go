// Package catalog describes the tables and columns a compiled query may
// reference, and caches rendered SQL against them. See SPEC_FULL.md §8.
package catalog

import (
	"fmt"

	"github.com/oxhq/funsql/dialect"
)

// SQLColumn is one reflected or hand-declared column of an SQLTable.
type SQLColumn struct {
	Name     string
	Metadata map[string]any
}

// SQLTable describes a table (or view) a FromTable node may reference.
type SQLTable struct {
	Qualifiers  []string
	Name        string
	Columns     map[string]*SQLColumn
	ColumnOrder []string
	Metadata    map[string]any
}

// NewSQLTable builds a table from an ordered column list, as Reflect does
// for each group of information_schema rows.
func NewSQLTable(name string, qualifiers []string, columnOrder []string) *SQLTable {
	cols := make(map[string]*SQLColumn, len(columnOrder))
	for _, c := range columnOrder {
		cols[c] = &SQLColumn{Name: c}
	}
	return &SQLTable{
		Qualifiers:  qualifiers,
		Name:        name,
		Columns:     cols,
		ColumnOrder: columnOrder,
	}
}

// SQLCatalog is the immutable set of tables a compilation may resolve
// FromTable references against, plus a dialect and a bounded render cache.
type SQLCatalog struct {
	Tables   map[string]*SQLTable
	Dialect  dialect.Dialect
	Metadata map[string]any

	cache *renderCache
}

// New builds a catalog from hand-declared tables (as opposed to Reflect,
// which introspects a live database).
func New(d dialect.Dialect, tables ...*SQLTable) *SQLCatalog {
	m := make(map[string]*SQLTable, len(tables))
	for _, t := range tables {
		m[t.Name] = t
	}
	return &SQLCatalog{Tables: m, Dialect: d, cache: newRenderCache(256)}
}

// Table looks up a table by name, as Resolve does when it needs a
// FromTable's column order.
func (c *SQLCatalog) Table(name string) (*SQLTable, error) {
	t, ok := c.Tables[name]
	if !ok {
		return nil, fmt.Errorf("catalog: unknown table %q", name)
	}
	return t, nil
}

// WithCacheCapacity returns a shallow copy of c with a freshly sized render
// cache, leaving Tables/Dialect/Metadata shared.
func (c *SQLCatalog) WithCacheCapacity(n int) *SQLCatalog {
	cp := *c
	cp.cache = newRenderCache(n)
	return &cp
}

// RenderCached returns the cached render for key (keyed by its pointer
// identity, since a query.Node tree is immutable once built), computing it
// via compute on a miss. Concurrent misses on the same key share one
// compute call. The caller type-asserts the result; the cache itself is
// agnostic to funsql.SQLString to avoid an import cycle.
func (c *SQLCatalog) RenderCached(key any, compute func() (any, error)) (any, error) {
	return c.cache.getOrCompute(key, fmt.Sprintf("%p", key), compute)
}
