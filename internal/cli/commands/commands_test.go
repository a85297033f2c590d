package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/petsales/internal/cli/config"
	"github.com/leapstack-labs/petsales/internal/sales"
	"github.com/leapstack-labs/petsales/internal/testutil"
)

func TestNewGenerateCommand(t *testing.T) {
	cmd := NewGenerateCommand()

	assert.Equal(t, "generate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"source", "source-kind", "dsn", "output", "seed", "delimiter", "date-format", "date-layout", "sample"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.NotNil(t, cmd.Flags().ShorthandLookup("s"))
	assert.NotNil(t, cmd.Flags().ShorthandLookup("o"))
}

func TestNewSampleDBCommand(t *testing.T) {
	cmd := NewSampleDBCommand()

	assert.Equal(t, "sample-db [path]", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}

func TestGenerate_UsesContextConfig(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Source.Path = testutil.SampleStore(t)
	cfg.Output.Path = filepath.Join(dir, "sales.tsv")
	cfg.Output.Delimiter = "tab"
	cfg.Sample = 2

	cmd := NewGenerateCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	require.NoError(t, cmd.ExecuteContext(ctx))

	out := buf.String()
	assert.Contains(t, out, "Wrote 12 rows to "+cfg.Output.Path)
	assert.Contains(t, out, "(2 of 12 rows)")

	raw, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	header := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, strings.Join(sales.OutputSchema.Names(), "\t"), header)
}

func TestSampleDB_Command(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "petstore.db")

	run := func(args ...string) (string, error) {
		cmd := NewSampleDBCommand()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(context.Background())
		return buf.String(), err
	}

	out, err := run(path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 3")

	_, err = run(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Use --force to overwrite")

	_, err = run(path, "--force")
	require.NoError(t, err)
}

func TestSchemaCommand(t *testing.T) {
	cmd := NewSchemaCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--query"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	for _, title := range []string{"Source columns", "Derived columns", "Output columns"} {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "click_through_rate")
	assert.Contains(t, out, "JOIN products pr ON p.product_id = pr.id")
}

func TestRenderTable(t *testing.T) {
	header := []string{"product_name", "in_stock"}
	rows := [][]string{{"Chew Toy", "True"}, {"Salmon Kibble", "False"}}

	t.Run("all rows", func(t *testing.T) {
		buf := new(bytes.Buffer)
		renderTable(buf, header, rows, 2)
		assert.Contains(t, buf.String(), "Salmon Kibble")
		assert.Contains(t, buf.String(), "(2 rows)")
	})

	t.Run("truncated", func(t *testing.T) {
		buf := new(bytes.Buffer)
		renderTable(buf, header, rows[:1], 12)
		assert.Contains(t, buf.String(), "(1 of 12 rows)")
	})

	t.Run("empty", func(t *testing.T) {
		buf := new(bytes.Buffer)
		renderTable(buf, header, nil, 0)
		assert.Equal(t, "(0 rows)\n", buf.String())
	})
}

func TestTableStyle_NonTerminal(t *testing.T) {
	assert.Equal(t, table.StyleDefault.Name, tableStyle(new(bytes.Buffer)).Name)
}
