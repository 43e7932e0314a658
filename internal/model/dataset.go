package model

import "time"

// Derived column names, matching the feature table headings.
const (
	ColYear         = "year"
	ColMonth        = "month"
	ColDay          = "day"
	ColIsQuarterEnd = "is_quarter_end"
	ColOpenClose    = "open-close"
	ColLowHigh      = "low-high"
	ColTarget       = "target"
)

// FeatureColumns are the model inputs, in matrix column order.
var FeatureColumns = []string{ColOpenClose, ColLowHigh, ColIsQuarterEnd}

// Label values. TargetUp is assigned when the next close is strictly higher.
const (
	TargetUp   = 0
	TargetDown = 1
)

// PriceRecord is one calendar day with its derived fields.
type PriceRecord struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64

	Year         int
	Month        int
	Day          int
	IsQuarterEnd int
	OpenClose    float64
	LowHigh      float64

	Target    int
	HasTarget bool // false for the final row, which has no next day
}

// Dataset is an ordered sequence of records, oldest first.
type Dataset struct {
	Source  string
	Records []PriceRecord
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Labelled returns the records that carry a defined target.
func (d *Dataset) Labelled() []PriceRecord {
	out := make([]PriceRecord, 0, len(d.Records))
	for _, r := range d.Records {
		if r.HasTarget {
			out = append(out, r)
		}
	}
	return out
}

// Field returns the named column of a record as a float.
func (r PriceRecord) Field(col string) float64 {
	switch col {
	case ColOpen:
		return r.Open
	case ColHigh:
		return r.High
	case ColLow:
		return r.Low
	case ColClose:
		return r.Close
	case ColYear:
		return float64(r.Year)
	case ColMonth:
		return float64(r.Month)
	case ColDay:
		return float64(r.Day)
	case ColIsQuarterEnd:
		return float64(r.IsQuarterEnd)
	case ColOpenClose:
		return r.OpenClose
	case ColLowHigh:
		return r.LowHigh
	case ColTarget:
		return float64(r.Target)
	default:
		return 0
	}
}

// Column extracts one field across the given records.
func Column(records []PriceRecord, col string) []float64 {
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = r.Field(col)
	}
	return vals
}

// Split is a train/validation partition of feature-matrix row indices.
type Split struct {
	Train        []int
	Valid        []int
	TestFraction float64
	Seed         uint64
}
