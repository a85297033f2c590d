// Package enrich derives calendar, marketing and stock columns for a sales table.
//
// Random columns come from an explicit *rand.Rand so a given seed always
// yields the same values. Each random column is drawn for every row before
// the next column starts; changing that order changes the output for a seed.
package enrich

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/petsales/internal/sales"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed uint64 = 42

// DefaultDateLayouts are tried in order when parsing order_date.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006/01/02",
}

// Rules holds the probabilities and ranges of the randomized columns.
type Rules struct {
	DiscountProbability float64 `validate:"gte=0,lte=1"`
	DiscountMin         float64 `validate:"gte=0,ltefield=DiscountMax"`
	DiscountMax         float64 `validate:"lte=100"`
	ReviewMin           float64 `validate:"gte=0,ltefield=ReviewMax"`
	ReviewMax           float64
	ReviewsMax          int     `validate:"gte=0"`
	AdSpendMin          float64 `validate:"gte=0,ltefield=AdSpendMax"`
	AdSpendMax          float64
	CTRMin              float64 `validate:"gte=0,ltefield=CTRMax"`
	CTRMax              float64 `validate:"lte=1"`
	HolidayMonths       []int   `validate:"dive,gte=1,lte=12"`
}

// DefaultRules returns the production rule set.
func DefaultRules() Rules {
	return Rules{
		DiscountProbability: 0.30,
		DiscountMin:         5.0,
		DiscountMax:         30.0,
		ReviewMin:           3.0,
		ReviewMax:           5.0,
		ReviewsMax:          200,
		AdSpendMin:          0.0,
		AdSpendMax:          100.0,
		CTRMin:              0.0,
		CTRMax:              0.1,
		HolidayMonths:       []int{11, 12, 1},
	}
}

// ParseError reports an order_date that matched none of the accepted layouts.
type ParseError struct {
	PurchaseID int64
	Value      string
	Err        error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("purchase %d: order_date is empty", e.PurchaseID)
	}
	return fmt.Sprintf("purchase %d: cannot parse order_date %q", e.PurchaseID, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Enricher adds the derived columns to a table.
type Enricher struct {
	rng     *rand.Rand
	rules   Rules
	layouts []string
	logger  *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithRules replaces DefaultRules.
func WithRules(r Rules) Option {
	return func(e *Enricher) { e.rules = r }
}

// WithDateLayouts replaces DefaultDateLayouts. An empty list keeps the defaults.
func WithDateLayouts(layouts []string) Option {
	return func(e *Enricher) {
		if len(layouts) > 0 {
			e.layouts = layouts
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates an Enricher drawing from rng.
func New(rng *rand.Rand, opts ...Option) (*Enricher, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	e := &Enricher{
		rng:     rng,
		rules:   DefaultRules(),
		layouts: DefaultDateLayouts,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := validate.Struct(e.rules); err != nil {
		return nil, fmt.Errorf("invalid enrichment rules: %w", err)
	}
	return e, nil
}

// NewSeeded creates an Enricher with a PCG source built from seed.
func NewSeeded(seed uint64, opts ...Option) (*Enricher, error) {
	return New(NewRand(seed), opts...)
}

// NewRand returns the PCG source used for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Enrich parses every order_date, then appends the derived columns in
// sales.DerivedSchema order. On a ParseError the table is left untouched.
func (e *Enricher) Enrich(t *sales.Table) error {
	if err := t.Require(sales.SourceSchema); err != nil {
		return err
	}
	for _, c := range sales.DerivedSchema {
		if t.Schema.Has(c.Name) {
			return fmt.Errorf("table already has derived column %q", c.Name)
		}
	}

	dates := make([]time.Time, t.Len())
	for i := range t.Records {
		d, err := e.parseDate(&t.Records[i])
		if err != nil {
			return err
		}
		dates[i] = d
	}

	recs := t.Records
	for i := range recs {
		recs[i].OrderDate = dates[i]
	}

	for _, col := range sales.DerivedSchema {
		e.fill(col.Name, recs)
		if err := t.AddColumn(col); err != nil {
			return err
		}
	}

	e.logger.Debug("enriched table", "rows", t.Len(), "columns", len(t.Schema))
	return nil
}

func (e *Enricher) fill(name string, recs []sales.Record) {
	r := e.rules
	switch name {
	case sales.ColMonth:
		for i := range recs {
			recs[i].Month = int(recs[i].OrderDate.Month())
		}
	case sales.ColWeekday:
		for i := range recs {
			recs[i].Weekday = mondayWeekday(recs[i].OrderDate.Weekday())
		}
	case sales.ColIsDiscounted:
		for i := range recs {
			recs[i].IsDiscounted = e.rng.Float64() < r.DiscountProbability
		}
	case sales.ColDiscountPct:
		for i := range recs {
			pct := round(e.uniform(r.DiscountMin, r.DiscountMax), 2)
			if recs[i].IsDiscounted {
				recs[i].DiscountPct = pct
			} else {
				recs[i].DiscountPct = 0
			}
		}
	case sales.ColAvgReviewScore:
		for i := range recs {
			recs[i].AvgReviewScore = round(e.uniform(r.ReviewMin, r.ReviewMax), 2)
		}
	case sales.ColNumReviews:
		for i := range recs {
			recs[i].NumReviews = e.rng.IntN(r.ReviewsMax + 1)
		}
	case sales.ColInStock:
		for i := range recs {
			recs[i].InStock = recs[i].StockLeft.Valid && recs[i].StockLeft.Int64 > 0
		}
	case sales.ColAdSpend:
		for i := range recs {
			recs[i].AdSpend = round(e.uniform(r.AdSpendMin, r.AdSpendMax), 2)
		}
	case sales.ColClickThroughRate:
		for i := range recs {
			recs[i].ClickThroughRate = round(e.uniform(r.CTRMin, r.CTRMax), 3)
		}
	case sales.ColHolidaySeason:
		for i := range recs {
			recs[i].HolidaySeason = r.isHoliday(recs[i].Month)
		}
	}
}

func (e *Enricher) parseDate(rec *sales.Record) (time.Time, error) {
	if !rec.RawOrderDate.Valid || strings.TrimSpace(rec.RawOrderDate.String) == "" {
		return time.Time{}, &ParseError{PurchaseID: rec.PurchaseID}
	}
	d, err := ParseDate(rec.RawOrderDate.String, e.layouts)
	if err != nil {
		return time.Time{}, &ParseError{PurchaseID: rec.PurchaseID, Value: rec.RawOrderDate.String, Err: err}
	}
	return d, nil
}

// ParseDate tries each layout in order and returns the first match.
func ParseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("no date layouts configured")
	}
	return time.Time{}, firstErr
}

func (e *Enricher) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.rng.Float64()
}

func (r Rules) isHoliday(month int) bool {
	for _, m := range r.HolidayMonths {
		if m == month {
			return true
		}
	}
	return false
}

// mondayWeekday maps time.Weekday (Sunday=0) to Monday=0 ... Sunday=6.
func mondayWeekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// round rounds half to even at the given number of decimal places.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).RoundBank(places).InexactFloat64()
}
