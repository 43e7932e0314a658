package calculator

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"BitcoinTrend/internal/model"
)

// FenceMultiplier is the IQR multiple used for outlier fences.
const FenceMultiplier = 1.5

// Summary holds describe-style statistics of one column.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// IQR returns the interquartile range Q3 - Q1.
func (s Summary) IQR() float64 { return s.Q3 - s.Q1 }

// Fences returns the lower and upper outlier fences Q1 - k*IQR and Q3 + k*IQR.
func (s Summary) Fences() (lower, upper float64) {
	return IQRFence(s.Q1, s.Q3)
}

// IQRFence computes outlier fences from the first and third quartiles.
func IQRFence(q1, q3 float64) (lower, upper float64) {
	iqr := q3 - q1
	return q1 - FenceMultiplier*iqr, q3 + FenceMultiplier*iqr
}

// Describe computes count, mean, sample std, min, quartiles and max.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.New("no values to describe")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
	}
	if len(values) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	} else {
		s.Mean, s.Std = values[0], math.NaN()
	}
	return s, nil
}

// Quantile returns the p-quantile of sorted values using linear interpolation
// between closest ranks, h = (n-1)p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// YearlyMean is the mean of one column over a calendar year.
type YearlyMean struct {
	Year int
	Mean float64
}

// YearlyMeans groups records by Year and averages the given column, oldest year first.
func YearlyMeans(records []model.PriceRecord, col string) []YearlyMean {
	groups := make(map[int][]float64)
	for _, r := range records {
		groups[r.Year] = append(groups[r.Year], r.Field(col))
	}
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearlyMean, len(years))
	for i, y := range years {
		out[i] = YearlyMean{Year: y, Mean: stat.Mean(groups[y], nil)}
	}
	return out
}

// CorrelationColumns are the numeric fields compared in the correlation heat map.
var CorrelationColumns = []string{
	model.ColOpen, model.ColHigh, model.ColLow, model.ColClose,
	model.ColYear, model.ColMonth, model.ColDay, model.ColIsQuarterEnd,
	model.ColOpenClose, model.ColLowHigh, model.ColTarget,
}

// CorrelationMatrix computes Pearson correlations between the columns of the records.
// Columns with zero variance yield NaN entries.
func CorrelationMatrix(records []model.PriceRecord, cols []string) *mat.SymDense {
	x := mat.NewDense(len(records), len(cols), nil)
	var constant []int
	for j, c := range cols {
		col := model.Column(records, c)
		x.SetCol(j, col)
		if v := stat.Variance(col, nil); !(v > 0) {
			constant = append(constant, j)
		}
	}
	corr := mat.NewSymDense(len(cols), nil)
	stat.CorrelationMatrix(corr, x, nil)
	// stat.CorrelationMatrix leaves 1 on the diagonal of a constant column.
	for _, j := range constant {
		for k := range cols {
			corr.SetSym(j, k, math.NaN())
		}
	}
	return corr
}

// Threshold marks entries strictly above cut with 1 and all others (including NaN) with 0.
func Threshold(m mat.Symmetric, cut float64) *mat.Dense {
	n := m.SymmetricDim()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := m.At(i, j); v > cut {
				out.Set(i, j, 1)
			}
		}
	}
	return out
}

// ClassBalance counts records per target value, index 0 = up, 1 = down.
func ClassBalance(records []model.PriceRecord) [2]int {
	var counts [2]int
	for _, r := range records {
		if r.HasTarget {
			counts[r.Target]++
		}
	}
	return counts
}

// Range returns the min and max of values.
func Range(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(values), floats.Max(values)
}
