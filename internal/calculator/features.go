package calculator

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"BitcoinTrend/internal/model"
)

// Derive fills the calendar fields, the three model features and the next-day label in place.
// The final record has no next day, so HasTarget is false for it.
func Derive(ds *model.Dataset) {
	closes := extractCloses(ds.Records)
	for i := range ds.Records {
		r := &ds.Records[i]
		r.Year, r.Month, r.Day = CalendarFields(r.Date)
		r.IsQuarterEnd = IsQuarterEnd(r.Month)
		r.OpenClose = r.Open - r.Close
		r.LowHigh = r.Low - r.High
		if i+1 < len(closes) {
			r.Target = NextDayTarget(closes[i], closes[i+1])
			r.HasTarget = true
		} else {
			r.Target = 0
			r.HasTarget = false
		}
	}
}

// NextDayTarget is TargetUp when the next close is strictly higher, TargetDown otherwise.
func NextDayTarget(today, next float64) int {
	if next > today {
		return model.TargetUp
	}
	return model.TargetDown
}

// FeatureMatrix builds the model inputs from labelled records only.
// Columns follow model.FeatureColumns.
func FeatureMatrix(ds *model.Dataset) (*mat.Dense, []float64, error) {
	labelled := ds.Labelled()
	if len(labelled) == 0 {
		return nil, nil, errors.New("no labelled records: need at least two rows")
	}
	x := mat.NewDense(len(labelled), len(model.FeatureColumns), nil)
	y := make([]float64, len(labelled))
	for i, r := range labelled {
		for j, col := range model.FeatureColumns {
			x.Set(i, j, r.Field(col))
		}
		y[i] = float64(r.Target)
	}
	return x, y, nil
}

func extractCloses(records []model.PriceRecord) []float64 {
	closes := make([]float64, len(records))
	for i, r := range records {
		closes[i] = r.Close
	}
	return closes
}
