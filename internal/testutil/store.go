package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/petsales/internal/sampledb"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// ProductsDDL and PurchasesDDL match the sample store schema.
const (
	ProductsDDL = `CREATE TABLE products (
		id INTEGER PRIMARY KEY, name TEXT, animal_type TEXT, category TEXT,
		price REAL, quantity INTEGER)`
	PurchasesDDL = `CREATE TABLE purchases (
		id INTEGER PRIMARY KEY, product_id INTEGER, quantity INTEGER, date TEXT)`
)

// SampleStore creates the seeded demo petstore in a temp dir and returns its path.
func SampleStore(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "petstore.db")
	if _, err := sampledb.Create(context.Background(), path, false, nil); err != nil {
		t.Fatalf("failed to create sample store: %v", err)
	}
	return path
}

// NewStore creates a SQLite file in a temp dir and runs statements against it in order.
func NewStore(t testing.TB, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to exec %q: %v", stmt, err)
		}
	}
	return path
}
