package catalog

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(`CREATE TABLE person (person_id INTEGER, year_of_birth INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE location (location_id INTEGER, state TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestReflectDiscoversTablesAndColumnsInOrder(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	cat, err := Reflect(context.Background(), db, "sqlite")
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	person, err := cat.Table("person")
	if err != nil {
		t.Fatalf("Table(person): %v", err)
	}
	if len(person.ColumnOrder) != 2 || person.ColumnOrder[0] != "person_id" || person.ColumnOrder[1] != "year_of_birth" {
		t.Errorf("expected [person_id year_of_birth], got %v", person.ColumnOrder)
	}
	if _, err := cat.Table("location"); err != nil {
		t.Errorf("expected location to be reflected: %v", err)
	}
}

func TestReflectRejectsUnknownDialect(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	_, err := Reflect(context.Background(), db, "cassandra")
	if err == nil {
		t.Fatal("expected an error for an unsupported reflect dialect")
	}
}

func TestReflectUnsupportedDialectForQueryIsDistinctFromUnknownDialect(t *testing.T) {
	t.Parallel()
	// sqlserver is a real funsql dialect but has no information_schema
	// query wired up in schemaColumnsQuery.
	_, err := schemaColumnsQuery("sqlserver")
	if err == nil {
		t.Fatal("expected an error for a dialect with no reflect query")
	}
}
