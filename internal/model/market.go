package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Column names as they appear in the price table header.
const (
	ColDate     = "Date"
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColAdjClose = "Adj Close"
	ColVolume   = "Volume"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{ColDate, ColOpen, ColHigh, ColLow, ColClose}

// PriceColumns are the four OHLC price columns.
var PriceColumns = []string{ColOpen, ColHigh, ColLow, ColClose}

// Bar represents a single raw daily row. Numeric cells may be null.
type Bar struct {
	Date     string
	Time     time.Time
	Open     null.Float
	High     null.Float
	Low      null.Float
	Close    null.Float
	AdjClose null.Float
	Volume   null.Float
}

// Value returns the numeric cell for the named column.
func (b Bar) Value(col string) null.Float {
	switch col {
	case ColOpen:
		return b.Open
	case ColHigh:
		return b.High
	case ColLow:
		return b.Low
	case ColClose:
		return b.Close
	case ColAdjClose:
		return b.AdjClose
	case ColVolume:
		return b.Volume
	default:
		return null.Float{}
	}
}

// Complete reports whether all four OHLC prices are present.
func (b Bar) Complete() bool {
	return b.Open.Valid && b.High.Valid && b.Low.Valid && b.Close.Valid
}

// PriceTable holds the raw table as loaded, in file order.
type PriceTable struct {
	Source  string
	Columns []string // header columns that were recognised, in file order
	Bars    []Bar
}

// NumericColumns returns the recognised columns other than Date.
func (t *PriceTable) NumericColumns() []string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != ColDate {
			cols = append(cols, c)
		}
	}
	return cols
}

// Values returns the valid values of a numeric column, skipping nulls.
func (t *PriceTable) Values(col string) []float64 {
	vals := make([]float64, 0, len(t.Bars))
	for _, b := range t.Bars {
		if v := b.Value(col); v.Valid {
			vals = append(vals, v.Float64)
		}
	}
	return vals
}

// NullCount returns how many cells of the column are null.
func (t *PriceTable) NullCount(col string) int {
	if col == ColDate {
		n := 0
		for _, b := range t.Bars {
			if b.Date == "" {
				n++
			}
		}
		return n
	}
	n := 0
	for _, b := range t.Bars {
		if !b.Value(col).Valid {
			n++
		}
	}
	return n
}
