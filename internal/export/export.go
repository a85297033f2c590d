// Package export projects an enriched sales table onto the published column
// set and writes it as a delimited file.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/petsales/internal/sales"
)

// DefaultPath is the output file used when none is configured.
const DefaultPath = "generated_pet_sales.csv"

// DateFormatAuto picks a date-only layout when every order date is at midnight.
const DateFormatAuto = "auto"

const (
	dateOnlyLayout = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Options controls serialization.
type Options struct {
	Path string
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// DateFormat is a Go layout for order_date, or DateFormatAuto / "".
	DateFormat string
	Logger     *slog.Logger
}

// WriteError reports an output path that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write output %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Projection is the table reduced to sales.OutputSchema, rendered as text.
type Projection struct {
	Header []string
	Rows   [][]string
}

// Project selects sales.OutputSchema from t and renders every value.
func Project(t *sales.Table, dateFormat string) (*Projection, error) {
	if err := t.Require(sales.OutputSchema); err != nil {
		return nil, fmt.Errorf("table is not ready for export: %w", err)
	}

	layout := dateLayout(t, dateFormat)
	p := &Projection{
		Header: sales.OutputSchema.Names(),
		Rows:   make([][]string, 0, t.Len()),
	}
	for i := range t.Records {
		row := make([]string, len(sales.OutputSchema))
		for j, col := range sales.OutputSchema {
			v, err := t.Records[i].Value(col.Name)
			if err != nil {
				return nil, err
			}
			row[j] = FormatValue(v, layout)
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

// Write projects t and replaces opts.Path with the result. The destination
// is only touched by the final rename; on error it is left as it was.
func Write(t *sales.Table, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	if err := ValidDelimiter(delim); err != nil {
		return err
	}

	p, err := Project(t, opts.DateFormat)
	if err != nil {
		return err
	}

	if err := writeAtomic(opts.Path, delim, p); err != nil {
		return &WriteError{Path: opts.Path, Err: err}
	}

	logger.Info("wrote output", "path", opts.Path, "rows", len(p.Rows), "columns", len(p.Header))
	return nil
}

func writeAtomic(path string, delim rune, p *Projection) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := csv.NewWriter(tmp)
	w.Comma = delim
	if err := w.Write(p.Header); err != nil {
		return err
	}
	if err := w.WriteAll(p.Rows); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ValidDelimiter reports whether r can separate fields.
func ValidDelimiter(r rune) error {
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError || !utf8.ValidRune(r) {
		return fmt.Errorf("invalid delimiter %q", r)
	}
	return nil
}

// ParseDelimiter accepts a single character, or the names "tab" and "\t".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, ValidDelimiter(r)
}

func dateLayout(t *sales.Table, format string) string {
	if format != "" && format != DateFormatAuto {
		return format
	}
	for i := range t.Records {
		d := t.Records[i].OrderDate
		if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
			return dateTimeLayout
		}
	}
	return dateOnlyLayout
}

// FormatValue renders a column value as written to the output file.
func FormatValue(v any, dateLayout string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(x)
	case time.Time:
		return x.Format(dateLayout)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := decimal.NewFromFloat(f).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
