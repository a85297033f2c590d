package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register(Backend{
		Kind:       "postgres",
		Addressing: ByDSN,
		New:        func(logger *slog.Logger) Reader { return NewPostgresReader(logger) },
	})
}

// PostgresReader reads from a PostgreSQL database addressed by DSN.
type PostgresReader struct {
	BaseReader
}

// NewPostgresReader creates a new, unopened PostgreSQL reader.
func NewPostgresReader(logger *slog.Logger) *PostgresReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresReader{BaseReader: BaseReader{Kind: "postgres", Logger: logger}}
}

// Open parses cfg.DSN and pings the server. An unreachable server is
// reported as NotFoundError naming host and database, never the password.
func (r *PostgresReader) Open(ctx context.Context, cfg Config) error {
	if cfg.DSN == "" {
		return fmt.Errorf("postgres source requires a DSN")
	}
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	location := redactedLocation(connCfg)

	r.Logger.Debug("connecting to postgres", slog.String("location", location))

	db := stdlib.OpenDB(*connCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &NotFoundError{Location: location, Err: err}
	}

	r.DB = db
	return nil
}

func redactedLocation(c *pgx.ConnConfig) string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.Host, c.Port, c.Database)
}
