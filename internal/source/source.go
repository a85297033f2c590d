// Package source reads the purchase/product join out of a relational store.
//
// Backends register themselves by kind (see Register). Each backend only
// differs in how it opens its *sql.DB; the query, the column check and the
// row scan are shared by BaseReader.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/petsales/internal/sales"
)

// JoinQuery selects one row per purchase that has a matching product, ordered
// by purchase date. Column aliases must match sales.SourceSchema.
const JoinQuery = `SELECT
    p.id           AS purchase_id,
    pr.name        AS product_name,
    pr.animal_type AS animal_type,
    pr.category    AS category,
    pr.price       AS price,
    p.quantity     AS sales,
    p.date         AS order_date,
    pr.quantity    AS stock_left
FROM purchases p
JOIN products pr ON p.product_id = pr.id
ORDER BY p.date ASC`

// Config selects and addresses a store.
type Config struct {
	// Kind is the registered backend name: sqlite, duckdb or postgres.
	Kind string
	// Path is the database file for file-based backends.
	Path string
	// DSN is the connection string for network backends.
	DSN string
}

// Reader produces the joined sales table from a store.
type Reader interface {
	// Open connects to the store described by cfg.
	Open(ctx context.Context, cfg Config) error
	// Read runs JoinQuery and materializes every row.
	Read(ctx context.Context) (*sales.Table, error)
	// Close releases the connection. It is safe to call on an unopened reader.
	Close() error
}

// Open creates a reader for cfg.Kind and connects it. On error nothing is left open.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Reader, error) {
	r, err := NewReader(cfg.Kind, logger)
	if err != nil {
		return nil, err
	}
	if err := r.Open(ctx, cfg); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// NotFoundError reports a store that does not exist or cannot be reached.
type NotFoundError struct {
	Location string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source store not found at %s: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("source store not found at %s", e.Location)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// QueryError reports a join query that could not run, typically because the
// store lacks one of the expected tables or columns.
type QueryError struct {
	Backend string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: join query failed: %v", e.Backend, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
