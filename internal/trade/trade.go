//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package trade defines the trade record shared by the generator and the
// loader, together with the delimited text format used between them.
package trade

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TableName is the destination table for loaded trades.
const TableName = "trades"

// Columns lists the destination columns in file field order.
var Columns = []string{"symbol", "trade_ts", "price", "qty", "side", "exchange"}

// NumFields is the number of fields in one serialized record.
const NumFields = 6

// Reference data for generated trades.
var (
	Symbols   = []string{"AAPL", "TSLA", "RELIANCE", "TCS", "INFY", "GOOG", "MSFT", "AMZN"}
	Exchanges = []string{"NSE", "BSE", "NASDAQ"}
	LotSizes  = []int32{1, 5, 10, 50, 100, 200}
)

// Price bounds and scale.
const (
	MinPrice   = 50
	MaxPrice   = 3500
	PriceScale = 4
)

// TimestampLayout is the ISO-8601 form written for trade_ts.
const TimestampLayout = time.RFC3339

// Layouts accepted when reading trade_ts. The naive layout matches files
// written by older tooling that omitted the zone; those are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Side is the trade direction flag.
type Side int16

const (
	Buy  Side = 0
	Sell Side = 1
)

// String returns "buy" or "sell".
func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", int16(s))
	}
}

// Trade is a single synthetic trade.
type Trade struct {
	Symbol    string
	Timestamp time.Time
	Price     decimal.Decimal
	Quantity  int32
	Side      Side
	Exchange  string
}

// Record returns the trade's fields in file order.
func (t Trade) Record() []string {
	return []string{
		t.Symbol,
		t.Timestamp.UTC().Format(TimestampLayout),
		t.Price.StringFixed(PriceScale),
		strconv.FormatInt(int64(t.Quantity), 10),
		strconv.FormatInt(int64(t.Side), 10),
		t.Exchange,
	}
}

// Parse decodes one record. It checks the field count and that every
// field has the right type; it does not check reference data.
func Parse(fields []string) (Trade, error) {
	if len(fields) != NumFields {
		return Trade{}, &FieldError{
			Field: "record",
			Err:   fmt.Errorf("expected %d fields, got %d", NumFields, len(fields)),
		}
	}

	var t Trade

	t.Symbol = fields[0]
	if t.Symbol == "" {
		return Trade{}, &FieldError{Field: "symbol", Err: fmt.Errorf("empty value")}
	}

	ts, err := parseTimestamp(fields[1])
	if err != nil {
		return Trade{}, &FieldError{Field: "trade_ts", Value: fields[1], Err: err}
	}
	t.Timestamp = ts

	price, err := decimal.NewFromString(fields[2])
	if err != nil {
		return Trade{}, &FieldError{Field: "price", Value: fields[2], Err: err}
	}
	t.Price = price

	qty, err := strconv.ParseInt(fields[3], 10, 32)
	if err != nil {
		return Trade{}, &FieldError{Field: "qty", Value: fields[3], Err: err}
	}
	if qty <= 0 {
		return Trade{}, &FieldError{Field: "qty", Value: fields[3], Err: fmt.Errorf("must be positive")}
	}
	t.Quantity = int32(qty)

	side, err := strconv.ParseInt(fields[4], 10, 16)
	if err != nil {
		return Trade{}, &FieldError{Field: "side", Value: fields[4], Err: err}
	}
	if Side(side) != Buy && Side(side) != Sell {
		return Trade{}, &FieldError{Field: "side", Value: fields[4], Err: fmt.Errorf("must be 0 or 1")}
	}
	t.Side = Side(side)

	t.Exchange = fields[5]
	if t.Exchange == "" {
		return Trade{}, &FieldError{Field: "exchange", Err: fmt.Errorf("empty value")}
	}

	return t, nil
}

func parseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// Validate checks the trade against the generator's reference data.
func (t Trade) Validate() error {
	if !slices.Contains(Symbols, t.Symbol) {
		return &FieldError{Field: "symbol", Value: t.Symbol, Err: fmt.Errorf("unknown symbol")}
	}
	if !slices.Contains(Exchanges, t.Exchange) {
		return &FieldError{Field: "exchange", Value: t.Exchange, Err: fmt.Errorf("unknown exchange")}
	}
	if !slices.Contains(LotSizes, t.Quantity) {
		return &FieldError{Field: "qty", Value: strconv.Itoa(int(t.Quantity)), Err: fmt.Errorf("not a lot size")}
	}
	if t.Price.LessThan(decimal.NewFromInt(MinPrice)) || t.Price.GreaterThan(decimal.NewFromInt(MaxPrice)) {
		return &FieldError{Field: "price", Value: t.Price.String(), Err: fmt.Errorf("out of range")}
	}
	if t.Side != Buy && t.Side != Sell {
		return &FieldError{Field: "side", Value: t.Side.String(), Err: fmt.Errorf("must be 0 or 1")}
	}
	return nil
}

// FieldError reports a bad field in a record.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
