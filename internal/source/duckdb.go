package source

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"

	"github.com/marcboeker/go-duckdb"
)

func init() {
	Register(Backend{
		Kind:       "duckdb",
		Addressing: ByPath,
		New:        func(logger *slog.Logger) Reader { return NewDuckDBReader(logger) },
	})
}

// duckdbCatalog is the name the store file is attached under.
const duckdbCatalog = "petstore"

// DuckDBReader reads from a DuckDB database file holding the same tables.
type DuckDBReader struct {
	BaseReader
}

// NewDuckDBReader creates a new, unopened DuckDB reader.
func NewDuckDBReader(logger *slog.Logger) *DuckDBReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDBReader{BaseReader: BaseReader{Kind: "duckdb", Logger: logger}}
}

// Open attaches cfg.Path read-only to an in-memory database. The driver
// cuts its DSN at the first '?' without unescaping, so the path goes
// through ATTACH as a quoted literal instead.
func (r *DuckDBReader) Open(ctx context.Context, cfg Config) error {
	if err := requireFile(cfg.Path); err != nil {
		return err
	}

	r.Logger.Debug("opening duckdb store", "path", cfg.Path)

	attach := fmt.Sprintf("ATTACH IF NOT EXISTS %s AS %s (READ_ONLY)", quoteLiteral(cfg.Path), duckdbCatalog)
	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		for _, stmt := range []string{attach, "USE " + duckdbCatalog} {
			if _, err := execer.ExecContext(context.Background(), stmt, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &NotFoundError{Location: cfg.Path, Err: err}
	}

	r.DB = db
	return nil
}
