package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/petsales/internal/enrich"
	"github.com/leapstack-labs/petsales/internal/export"
	"github.com/leapstack-labs/petsales/internal/sales"
	"github.com/leapstack-labs/petsales/internal/sampledb"
	"github.com/leapstack-labs/petsales/internal/source"
	"github.com/leapstack-labs/petsales/internal/testutil"
)

func sampleOptions(t *testing.T, storePath string) Options {
	t.Helper()
	return Options{
		Source: source.Config{Kind: "sqlite", Path: storePath},
		Output: export.Options{Path: filepath.Join(t.TempDir(), "generated_pet_sales.csv")},
		Seed:   enrich.DefaultSeed,
		Logger: testutil.NewTestLogger(t),
	}
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func assertNoOutput(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "output file must not exist: %s", path)
}

func TestRun_SampleStore(t *testing.T) {
	opts := sampleOptions(t, testutil.SampleStore(t))

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, sampledb.MatchingPurchases, res.Rows)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, opts.Output.Path, res.Path)

	rows := readOutput(t, opts.Output.Path)
	require.Len(t, rows, sampledb.MatchingPurchases+1)
	assert.Equal(t, sales.OutputSchema.Names(), rows[0])

	col := func(name string) int { return sales.OutputSchema.Index(name) }
	prevDate := ""
	for _, row := range rows[1:] {
		require.Len(t, row, 17)

		date := row[col(sales.ColOrderDate)]
		assert.LessOrEqual(t, prevDate, date)
		prevDate = date

		discounted := row[col(sales.ColIsDiscounted)] == "True"
		pct, err := strconv.ParseFloat(row[col(sales.ColDiscountPct)], 64)
		require.NoError(t, err)
		assert.Equal(t, discounted, pct > 0)

		stock, err := strconv.Atoi(row[col(sales.ColStockLeft)])
		require.NoError(t, err)
		assert.Equal(t, stock > 0, row[col(sales.ColInStock)] == "True")

		month := row[col(sales.ColMonth)]
		holiday := month == "11" || month == "12" || month == "1"
		assert.Equal(t, holiday, row[col(sales.ColHolidaySeason)] == "True")

		switch row[col(sales.ColProductName)] {
		case "Salmon Kibble":
			assert.Equal(t, "False", row[col(sales.ColInStock)])
		case "Aquarium Filter":
			assert.Equal(t, "5", row[col(sales.ColStockLeft)])
			assert.Equal(t, "True", row[col(sales.ColInStock)])
		}
	}

	last := rows[len(rows)-1]
	assert.Equal(t, "2024-12-25", last[col(sales.ColOrderDate)])
	assert.Equal(t, "12", last[col(sales.ColMonth)])
	assert.Equal(t, "2", last[col(sales.ColWeekday)])
	assert.Equal(t, "True", last[col(sales.ColHolidaySeason)])
}

func TestRun_Deterministic(t *testing.T) {
	store := testutil.SampleStore(t)

	run := func(seed uint64) []byte {
		opts := sampleOptions(t, store)
		opts.Seed = seed
		_, err := Run(context.Background(), opts)
		require.NoError(t, err)
		b, err := os.ReadFile(opts.Output.Path)
		require.NoError(t, err)
		return b
	}

	first, second, other := run(42), run(42), run(7)
	assert.Equal(t, first, second, "same seed must produce byte-identical output")
	assert.NotEqual(t, first, other)
}

func TestRun_Errors(t *testing.T) {
	badDate := []string{
		testutil.ProductsDDL,
		testutil.PurchasesDDL,
		`INSERT INTO products VALUES (1, 'Chew Toy', 'dog', 'toys', 4.99, 25)`,
		`INSERT INTO purchases VALUES (1, 1, 2, '2024-01-05'), (7, 1, 1, 'soon')`,
	}
	noCategory := []string{
		`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT, animal_type TEXT, price REAL, quantity INTEGER)`,
		testutil.PurchasesDDL,
	}

	tests := []struct {
		name      string
		storePath func(t *testing.T) string
		check     func(t *testing.T, err error)
	}{
		{
			name:      "missing store",
			storePath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "petstore.db") },
			check: func(t *testing.T, err error) {
				var nf *source.NotFoundError
				assert.ErrorAs(t, err, &nf)
			},
		},
		{
			name:      "products without category",
			storePath: func(t *testing.T) string { return testutil.NewStore(t, noCategory...) },
			check: func(t *testing.T, err error) {
				var qe *source.QueryError
				assert.ErrorAs(t, err, &qe)
			},
		},
		{
			name:      "unparseable order date",
			storePath: func(t *testing.T) string { return testutil.NewStore(t, badDate...) },
			check: func(t *testing.T, err error) {
				var pe *enrich.ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, int64(7), pe.PurchaseID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := sampleOptions(t, tt.storePath(t))

			res, err := Run(context.Background(), opts)
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)
			assertNoOutput(t, opts.Output.Path)
		})
	}
}

func TestRun_WriteErrorKeepsExistingOutput(t *testing.T) {
	opts := sampleOptions(t, testutil.SampleStore(t))
	opts.Output.Path = filepath.Join(t.TempDir(), "missing", "out.csv")

	_, err := Run(context.Background(), opts)
	var we *export.WriteError
	require.ErrorAs(t, err, &we)
	assertNoOutput(t, opts.Output.Path)
}

func mockReader(t *testing.T, setup func(mock sqlmock.Sqlmock)) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	setup(mock)

	orig := openReader
	openReader = func(_ context.Context, _ source.Config, logger *slog.Logger) (source.Reader, error) {
		return source.NewSQLReader("mock", db, logger), nil
	}
	t.Cleanup(func() { openReader = orig })
	return mock
}

func TestRun_ClosesReader(t *testing.T) {
	cols := sales.SourceSchema.Names()

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr []string
	}{
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM purchases p").WillReturnError(errors.New("no such table: purchases"))
				mock.ExpectClose()
			},
			wantErr: []string{"no such table: purchases"},
		},
		{
			name: "success",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM purchases p").WillReturnRows(
					sqlmock.NewRows(cols).AddRow(int64(1), "Seed Mix", "bird", "food", 7.25, int64(1), "2024-02-14", int64(12)))
				mock.ExpectClose()
			},
		},
		{
			name: "close failure is reported with the primary error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM purchases p").WillReturnError(errors.New("no such column: pr.category"))
				mock.ExpectClose().WillReturnError(errors.New("connection reset"))
			},
			wantErr: []string{"no such column: pr.category", "failed to close source: connection reset"},
		},
		{
			name: "close failure after a good run",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM purchases p").WillReturnRows(sqlmock.NewRows(cols))
				mock.ExpectClose().WillReturnError(errors.New("connection reset"))
			},
			wantErr: []string{"failed to close source"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mockReader(t, tt.setup)
			opts := sampleOptions(t, "")
			opts.Source.Kind = "mock"

			res, err := Run(context.Background(), opts)
			if len(tt.wantErr) > 0 {
				require.Error(t, err)
				assert.Nil(t, res)
				for _, msg := range tt.wantErr {
					assert.Contains(t, err.Error(), msg)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, res.Rows)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRun_InvalidRules(t *testing.T) {
	rules := enrich.DefaultRules()
	rules.DiscountProbability = 2

	opts := sampleOptions(t, testutil.SampleStore(t))
	opts.Rules = &rules

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assertNoOutput(t, opts.Output.Path)
}

func TestRun_DateDeclaredColumn(t *testing.T) {
	store := testutil.NewStore(t,
		testutil.ProductsDDL,
		`CREATE TABLE purchases (id INTEGER PRIMARY KEY, product_id INTEGER, quantity INTEGER, date DATE)`,
		`INSERT INTO products VALUES (1, 'Chew Toy', 'dog', 'toys', 4.99, 25)`,
		`INSERT INTO purchases VALUES
			(1, 1, 2, '2024-03-02'),
			(2, 1, 1, '2024-03-03 14:30:00'),
			(3, 1, 3, '2024-03-04T10:00:00+02:00')`,
	)
	opts := sampleOptions(t, store)

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	rows := readOutput(t, opts.Output.Path)
	require.Len(t, rows, 4)
	col := sales.OutputSchema.Index(sales.ColOrderDate)
	// One row with a time of day switches the whole column to date-time form.
	assert.Equal(t, "2024-03-02 00:00:00", rows[1][col])
	assert.Equal(t, "2024-03-03 14:30:00", rows[2][col])
	assert.Equal(t, "2024-03-04 10:00:00", rows[3][col])
}
