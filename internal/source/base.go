package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/petsales/internal/sales"
)

// rawDateLayout renders driver-parsed date values so the enricher can parse
// them back with its default layouts.
const rawDateLayout = "2006-01-02 15:04:05.999999999"

// BaseReader provides the database/sql side of every backend.
// Embed it in a concrete reader and set DB from Open.
type BaseReader struct {
	DB     *sql.DB
	Kind   string
	Logger *slog.Logger
}

// NewSQLReader wraps an already opened database. Close closes db.
func NewSQLReader(kind string, db *sql.DB, logger *slog.Logger) *BaseReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BaseReader{DB: db, Kind: kind, Logger: logger}
}

// Open is a no-op for a reader built around an existing connection.
func (b *BaseReader) Open(_ context.Context, _ Config) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return nil
}

// Close closes the database connection.
func (b *BaseReader) Close() error {
	if b.DB == nil {
		return nil
	}
	b.log().Debug("closing source connection", "kind", b.Kind)
	err := b.DB.Close()
	b.DB = nil
	return err
}

// Read runs JoinQuery and scans every row into a sales table.
func (b *BaseReader) Read(ctx context.Context) (*sales.Table, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	start := time.Now()
	//nolint:rowserrcheck // rows.Err() is checked after the scan loop
	rows, err := b.DB.QueryContext(ctx, JoinQuery)
	if err != nil {
		return nil, &QueryError{Backend: b.Kind, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Backend: b.Kind, Err: err}
	}
	if err := sales.SourceSchema.CheckNames(cols); err != nil {
		return nil, &QueryError{Backend: b.Kind, Err: err}
	}

	var records []sales.Record
	for rows.Next() {
		var rec sales.Record
		var orderDate any
		if err := rows.Scan(
			&rec.PurchaseID,
			&rec.ProductName,
			&rec.AnimalType,
			&rec.Category,
			&rec.Price,
			&rec.Sales,
			&orderDate,
			&rec.StockLeft,
		); err != nil {
			return nil, &QueryError{Backend: b.Kind, Err: fmt.Errorf("failed to scan row: %w", err)}
		}
		rec.RawOrderDate = dateText(orderDate)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Backend: b.Kind, Err: err}
	}

	b.log().Debug("read join result",
		"kind", b.Kind,
		"rows", len(records),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return sales.NewTable(records), nil
}

func (b *BaseReader) log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// dateText normalizes the order_date value a driver hands back. SQLite gives
// text (or time.Time for DATE-declared columns), DuckDB and Postgres give time.Time.
func dateText(v any) sql.NullString {
	switch d := v.(type) {
	case nil:
		return sql.NullString{}
	case string:
		return sql.NullString{String: d, Valid: true}
	case []byte:
		return sql.NullString{String: string(d), Valid: true}
	case time.Time:
		return sql.NullString{String: d.Format(rawDateLayout), Valid: true}
	default:
		return sql.NullString{String: fmt.Sprint(d), Valid: true}
	}
}

// requireFile fails with NotFoundError unless path names an existing regular file.
func requireFile(path string) error {
	if path == "" {
		return &NotFoundError{Location: "(empty path)"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Location: path}
		}
		return &NotFoundError{Location: path, Err: err}
	}
	if info.IsDir() {
		return &NotFoundError{Location: path, Err: fmt.Errorf("path is a directory")}
	}
	return nil
}

// fileURI builds a SQLite "file:" URI for path. The path is percent-escaped
// so '#', '?' and '%' in file names are not read as URI syntax.
func fileURI(path, query string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: query}
	return u.String()
}

// quoteLiteral quotes s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
