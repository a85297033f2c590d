package sales

import (
	"database/sql"
	"fmt"
	"time"
)

// Record is one purchase line joined with its product, plus the columns
// derived during enrichment. Derived fields are meaningful only once the
// owning table's schema lists them.
type Record struct {
	PurchaseID   int64
	ProductName  sql.NullString
	AnimalType   sql.NullString
	Category     sql.NullString
	Price        sql.NullFloat64
	Sales        sql.NullInt64
	RawOrderDate sql.NullString
	StockLeft    sql.NullInt64

	OrderDate        time.Time
	Month            int
	Weekday          int
	IsDiscounted     bool
	DiscountPct      float64
	AvgReviewScore   float64
	NumReviews       int
	InStock          bool
	AdSpend          float64
	ClickThroughRate float64
	HolidaySeason    bool
}

// Value returns the value of the named column: string, int64, float64, bool,
// time.Time, or nil for SQL NULL.
func (r *Record) Value(name string) (any, error) {
	switch name {
	case ColPurchaseID:
		return r.PurchaseID, nil
	case ColProductName:
		return nullString(r.ProductName), nil
	case ColAnimalType:
		return nullString(r.AnimalType), nil
	case ColCategory:
		return nullString(r.Category), nil
	case ColPrice:
		if !r.Price.Valid {
			return nil, nil
		}
		return r.Price.Float64, nil
	case ColSales:
		return nullInt(r.Sales), nil
	case ColOrderDate:
		return r.OrderDate, nil
	case ColStockLeft:
		return nullInt(r.StockLeft), nil
	case ColMonth:
		return int64(r.Month), nil
	case ColWeekday:
		return int64(r.Weekday), nil
	case ColIsDiscounted:
		return r.IsDiscounted, nil
	case ColDiscountPct:
		return r.DiscountPct, nil
	case ColAvgReviewScore:
		return r.AvgReviewScore, nil
	case ColNumReviews:
		return int64(r.NumReviews), nil
	case ColInStock:
		return r.InStock, nil
	case ColAdSpend:
		return r.AdSpend, nil
	case ColClickThroughRate:
		return r.ClickThroughRate, nil
	case ColHolidaySeason:
		return r.HolidaySeason, nil
	}
	return nil, &MissingColumnError{Column: name}
}

func nullString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullInt(v sql.NullInt64) any {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

// Table is the materialized result of the join query. Records keep the
// query's order for the table's whole lifetime.
type Table struct {
	Schema  Schema
	Records []Record
}

// NewTable wraps records read from the source. The table starts with SourceSchema.
func NewTable(records []Record) *Table {
	return &Table{
		Schema:  SourceSchema.Clone(),
		Records: records,
	}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// AddColumn appends a column to the schema. Values must already be set on every record.
func (t *Table) AddColumn(c Column) error {
	if t.Schema.Has(c.Name) {
		return fmt.Errorf("column %q already present", c.Name)
	}
	t.Schema = append(t.Schema, c)
	return nil
}

// Require checks that every column of want is present with the same type.
func (t *Table) Require(want Schema) error {
	for _, c := range want {
		i := t.Schema.Index(c.Name)
		if i < 0 {
			return &MissingColumnError{Column: c.Name}
		}
		if t.Schema[i].Type != c.Type {
			return fmt.Errorf("column %q has type %s, want %s", c.Name, t.Schema[i].Type, c.Type)
		}
	}
	return nil
}
