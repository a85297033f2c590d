// Package pipeline runs one read → enrich → export pass.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/leapstack-labs/petsales/internal/enrich"
	"github.com/leapstack-labs/petsales/internal/export"
	"github.com/leapstack-labs/petsales/internal/sales"
	"github.com/leapstack-labs/petsales/internal/source"
)

// openReader is swapped in tests to inject a mocked connection.
var openReader = source.Open

// Options configures a run.
type Options struct {
	Source source.Config
	Output export.Options
	// Seed feeds the enricher's random source.
	Seed        uint64
	DateLayouts []string
	Rules       *enrich.Rules
	Logger      *slog.Logger
}

// Result summarizes a completed run.
type Result struct {
	RunID   string
	Path    string
	Rows    int
	Elapsed time.Duration
	// Table is the enriched table that was written.
	Table *sales.Table
}

// Run reads the join, enriches it and writes the output file. On any error
// the output path is left untouched and the store connection is closed.
func Run(ctx context.Context, opts Options) (res *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("run_id", runID)

	enrichOpts := []enrich.Option{
		enrich.WithDateLayouts(opts.DateLayouts),
		enrich.WithLogger(logger),
	}
	if opts.Rules != nil {
		enrichOpts = append(enrichOpts, enrich.WithRules(*opts.Rules))
	}
	enricher, err := enrich.NewSeeded(opts.Seed, enrichOpts...)
	if err != nil {
		return nil, err
	}

	logger.Info("starting run",
		"source_kind", opts.Source.Kind,
		"seed", opts.Seed,
		"output", opts.Output.Path)

	reader, err := openReader(ctx, opts.Source, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close source: %w", cerr))
			res = nil
		}
	}()

	table, err := reader.Read(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("read source", "rows", table.Len())

	if err := enricher.Enrich(table); err != nil {
		return nil, err
	}

	out := opts.Output
	out.Logger = logger
	if out.Path == "" {
		out.Path = export.DefaultPath
	}
	if err := export.Write(table, out); err != nil {
		return nil, err
	}

	res = &Result{
		RunID:   runID,
		Path:    out.Path,
		Rows:    table.Len(),
		Elapsed: time.Since(start),
		Table:   table,
	}
	logger.Info("run complete", "rows", res.Rows, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}
