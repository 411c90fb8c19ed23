package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oxhq/funsql/dialect"
)

// Reflect introspects a live database's schema and builds a SQLCatalog
// from it, grouping information_schema/system-view rows into SQLTables in
// catalog/schema/name/column order. Grounded on the teacher's
// cmd/repl/db.go loadSchema/schemaColumns pair.
func Reflect(ctx context.Context, db *sql.DB, dialectName string) (*SQLCatalog, error) {
	d, ok := dialect.ByName(dialectName)
	if !ok {
		return nil, fmt.Errorf("catalog: unknown dialect %q", dialectName)
	}

	query, err := schemaColumnsQuery(dialectName)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: reflect: %w", err)
	}
	defer func() { _ = rows.Close() }()

	order := make([]string, 0)
	byTable := make(map[string][]string)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("catalog: reflect: scan: %w", err)
		}
		if _, ok := byTable[table]; !ok {
			order = append(order, table)
		}
		byTable[table] = append(byTable[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: reflect: %w", err)
	}

	tables := make([]*SQLTable, 0, len(order))
	for _, name := range order {
		tables = append(tables, NewSQLTable(name, nil, byTable[name]))
	}
	return New(d, tables...), nil
}

func schemaColumnsQuery(dialectName string) (string, error) {
	switch dialectName {
	case "postgresql":
		return `SELECT table_name, column_name FROM information_schema.columns
			WHERE table_schema = 'public' ORDER BY table_name, ordinal_position`, nil
	case "mysql":
		return `SELECT table_name, column_name FROM information_schema.columns
			WHERE table_schema = DATABASE() ORDER BY table_name, ordinal_position`, nil
	case "sqlite":
		return `SELECT m.name AS table_name, p.name AS column_name
			FROM sqlite_master m JOIN pragma_table_info(m.name) p
			WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
			ORDER BY m.name, p.cid`, nil
	default:
		return "", fmt.Errorf("catalog: unsupported dialect %q for reflection", dialectName)
	}
}
