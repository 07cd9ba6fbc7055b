package model

import (
	"math"
	"time"
)

// Field names used by market data providers for price columns.
const (
	FieldOpen     = "Open"
	FieldHigh     = "High"
	FieldLow      = "Low"
	FieldClose    = "Close"
	FieldAdjClose = "Adj Close"
	FieldVolume   = "Volume"
)

// OHLCV represents a single daily bar. AdjClose is NaN when the provider has none.
type OHLCV struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Shape tells how the columns of a PriceTable are organised.
type Shape int

const (
	// ShapeFlat has field columns only; a single instrument is implied.
	ShapeFlat Shape = iota
	// ShapeFieldByInstrument has a field level and an instrument level.
	ShapeFieldByInstrument
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeFieldByInstrument:
		return "field_by_instrument"
	default:
		return "unknown"
	}
}

// PriceTable is the raw provider response aligned on a common date axis.
// Missing values are NaN. For ShapeFlat the instrument key is "".
type PriceTable struct {
	Shape       Shape
	Dates       []time.Time
	Fields      []string // column order, oldest column first
	Instruments []string // request order
	Columns     map[string]map[string][]float64
}

// NewPriceTable returns an empty table of the given shape.
func NewPriceTable(shape Shape, dates []time.Time) *PriceTable {
	return &PriceTable{
		Shape:   shape,
		Dates:   dates,
		Columns: make(map[string]map[string][]float64),
	}
}

// Set stores a column, registering the field and instrument on first use.
func (t *PriceTable) Set(field, instrument string, values []float64) {
	byInstrument, ok := t.Columns[field]
	if !ok {
		byInstrument = make(map[string][]float64)
		t.Columns[field] = byInstrument
		t.Fields = append(t.Fields, field)
	}
	if !contains(t.Instruments, instrument) {
		t.Instruments = append(t.Instruments, instrument)
	}
	byInstrument[instrument] = values
}

// HasField reports whether the field level contains the given field.
func (t *PriceTable) HasField(field string) bool {
	_, ok := t.Columns[field]
	return ok
}

// Column returns the values of a field for an instrument.
func (t *PriceTable) Column(field, instrument string) ([]float64, bool) {
	byInstrument, ok := t.Columns[field]
	if !ok {
		return nil, false
	}
	v, ok := byInstrument[instrument]
	return v, ok
}

// Len returns the number of dates.
func (t *PriceTable) Len() int { return len(t.Dates) }

// PriceFrame holds one price per instrument per date.
type PriceFrame struct {
	Dates   []time.Time
	Symbols []string
	Prices  [][]float64 // Prices[i] belongs to Symbols[i]
}

// Len returns the number of observations.
func (f *PriceFrame) Len() int { return len(f.Dates) }

// Series returns the prices of a symbol.
func (f *PriceFrame) Series(symbol string) ([]float64, bool) {
	for i, s := range f.Symbols {
		if s == symbol {
			return f.Prices[i], true
		}
	}
	return nil, false
}

// Missing is the marker for an undefined value.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is undefined.
func IsMissing(v float64) bool { return math.IsNaN(v) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
