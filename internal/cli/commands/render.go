package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/petsales/internal/sales"
)

// renderTable prints rows under header, then "(shown of total rows)".
func renderTable(w io.Writer, header []string, rows [][]string, total int) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(tableStyle(w))

	headerRow := make(table.Row, len(header))
	for i, col := range header {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	if len(rows) < total {
		_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", len(rows), total)
		return
	}
	_, _ = fmt.Fprintf(w, "(%d rows)\n", total)
}

// renderSchema prints one line per column with its position and type.
func renderSchema(w io.Writer, title string, s sales.Schema) {
	_, _ = fmt.Fprintln(w, title)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(tableStyle(w))
	t.AppendHeader(table.Row{"#", "column", "type"})
	for i, c := range s {
		t.AppendRow(table.Row{i + 1, c.Name, string(c.Type)})
	}
	t.Render()
}

// tableStyle draws box characters on a terminal and plain ASCII when piped.
func tableStyle(w io.Writer) table.Style {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return table.StyleLight
	}
	return table.StyleDefault
}
