// Package sampledb creates a small demo petstore database with the tables
// the exporter reads. It exists for trying the tool and for test fixtures;
// it never touches an existing store.
package sampledb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// MatchingPurchases is the number of seeded purchases that join to a product.
const MatchingPurchases = 12

// Summary describes a created database.
type Summary struct {
	Path       string
	Version    int64
	Migrations int
}

// Create writes a new SQLite database at path and applies the embedded
// migrations. An existing file is an error unless force is set, in which
// case it is removed first.
func Create(ctx context.Context, path string, force bool, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			return nil, fmt.Errorf("%s already exists. Use --force to overwrite", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove existing database: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fileURI(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	summary, err := Migrate(ctx, db, logger)
	if err != nil {
		return nil, err
	}
	summary.Path = path
	return summary, nil
}

// Migrate applies the embedded migrations to db.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, res := range results {
		logger.Debug("applied migration",
			"version", res.Source.Version,
			"file", filepath.Base(res.Source.Path),
			"duration", res.Duration)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration version: %w", err)
	}

	return &Summary{Version: version, Migrations: len(results)}, nil
}

// fileURI escapes path into a read-write-create "file:" URI so characters
// such as '?' and '#' stay part of the file name.
func fileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: "mode=rwc"}).String()
}
