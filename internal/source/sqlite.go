package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

func init() {
	Register(Backend{
		Kind:       "sqlite",
		Addressing: ByPath,
		New:        func(logger *slog.Logger) Reader { return NewSQLiteReader(logger) },
	})
}

// SQLiteReader reads from a SQLite database file.
type SQLiteReader struct {
	BaseReader
}

// NewSQLiteReader creates a new, unopened SQLite reader.
func NewSQLiteReader(logger *slog.Logger) *SQLiteReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteReader{BaseReader: BaseReader{Kind: "sqlite", Logger: logger}}
}

// Open opens cfg.Path read-only. The file must already exist: the driver
// would otherwise create an empty database.
func (r *SQLiteReader) Open(ctx context.Context, cfg Config) error {
	if err := requireFile(cfg.Path); err != nil {
		return err
	}

	r.Logger.Debug("opening sqlite store", "path", cfg.Path)

	db, err := sql.Open("sqlite", fileURI(cfg.Path, "mode=ro"))
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &NotFoundError{Location: cfg.Path, Err: err}
	}

	r.DB = db
	return nil
}
