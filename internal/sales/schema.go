// Package sales holds the Sale Record model, the declared column schemas and
// the in-memory table that flows through the export pipeline.
package sales

import (
	"fmt"
	"strings"
)

// ColumnType is the logical type of a table column.
type ColumnType string

// Column types.
const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
	TypeDate    ColumnType = "date"
	TypeBool    ColumnType = "bool"
)

// Column names. The source names are the aliases used by the join query.
const (
	ColPurchaseID  = "purchase_id"
	ColProductName = "product_name"
	ColAnimalType  = "animal_type"
	ColCategory    = "category"
	ColPrice       = "price"
	ColSales       = "sales"
	ColOrderDate   = "order_date"
	ColStockLeft   = "stock_left"

	ColMonth            = "month"
	ColWeekday          = "weekday"
	ColIsDiscounted     = "is_discounted"
	ColDiscountPct      = "discount_pct"
	ColAvgReviewScore   = "avg_review_score"
	ColNumReviews       = "num_reviews"
	ColInStock          = "in_stock"
	ColAdSpend          = "ad_spend"
	ColClickThroughRate = "click_through_rate"
	ColHolidaySeason    = "holiday_season"
)

// Column is a named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered list of columns.
type Schema []Column

// SourceSchema is the shape of the join query result, in select order.
var SourceSchema = Schema{
	{ColPurchaseID, TypeInteger},
	{ColProductName, TypeText},
	{ColAnimalType, TypeText},
	{ColCategory, TypeText},
	{ColPrice, TypeReal},
	{ColSales, TypeInteger},
	{ColOrderDate, TypeDate},
	{ColStockLeft, TypeInteger},
}

// DerivedSchema lists the columns added by enrichment, in the order they are added.
var DerivedSchema = Schema{
	{ColMonth, TypeInteger},
	{ColWeekday, TypeInteger},
	{ColIsDiscounted, TypeBool},
	{ColDiscountPct, TypeReal},
	{ColAvgReviewScore, TypeReal},
	{ColNumReviews, TypeInteger},
	{ColInStock, TypeBool},
	{ColAdSpend, TypeReal},
	{ColClickThroughRate, TypeReal},
	{ColHolidaySeason, TypeBool},
}

// OutputSchema is the exported column set, in file order.
var OutputSchema = Schema{
	{ColProductName, TypeText},
	{ColAnimalType, TypeText},
	{ColCategory, TypeText},
	{ColPrice, TypeReal},
	{ColSales, TypeInteger},
	{ColOrderDate, TypeDate},
	{ColMonth, TypeInteger},
	{ColWeekday, TypeInteger},
	{ColIsDiscounted, TypeBool},
	{ColDiscountPct, TypeReal},
	{ColAvgReviewScore, TypeReal},
	{ColNumReviews, TypeInteger},
	{ColInStock, TypeBool},
	{ColStockLeft, TypeInteger},
	{ColAdSpend, TypeReal},
	{ColClickThroughRate, TypeReal},
	{ColHolidaySeason, TypeBool},
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the schema contains the named column.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Clone returns a copy that can be appended to without touching s.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// CheckNames verifies that got lists exactly the schema's columns in order.
// Names are compared case-insensitively since some drivers fold alias case.
func (s Schema) CheckNames(got []string) error {
	if len(got) != len(s) {
		return &SchemaMismatchError{Want: s.Names(), Got: got}
	}
	for i, c := range s {
		if !strings.EqualFold(c.Name, got[i]) {
			return &SchemaMismatchError{Want: s.Names(), Got: got}
		}
	}
	return nil
}

// SchemaMismatchError is returned when a result set does not have the declared columns.
type SchemaMismatchError struct {
	Want []string
	Got  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("column mismatch: want [%s], got [%s]",
		strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

// MissingColumnError is returned when a table lacks a column an operation needs.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table has no column %q", e.Column)
}
