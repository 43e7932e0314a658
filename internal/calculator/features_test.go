package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BitcoinTrend/internal/model"
)

func recordsFromCloses(start time.Time, closes []float64) *model.Dataset {
	ds := &model.Dataset{Source: "test"}
	for i, c := range closes {
		ds.Records = append(ds.Records, model.PriceRecord{
			Date:  start.AddDate(0, 0, i),
			Open:  c + 1,
			High:  c + 3,
			Low:   c - 2,
			Close: c,
		})
	}
	return ds
}

func TestDerive_FourRowScenario(t *testing.T) {
	ds := recordsFromCloses(time.Date(2022, 3, 30, 0, 0, 0, 0, time.UTC), []float64{100, 105, 103, 110})
	Derive(ds)

	targets := make([]int, 0, 3)
	for _, r := range ds.Records[:3] {
		require.True(t, r.HasTarget)
		targets = append(targets, r.Target)
	}
	assert.Equal(t, []int{0, 1, 0}, targets)
	assert.False(t, ds.Records[3].HasTarget, "last row has no next day")

	x, y, err := FeatureMatrix(ds)
	require.NoError(t, err)
	r, c := x.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{0, 1, 0}, y)
}

func TestDerive_TargetRule(t *testing.T) {
	closes := []float64{10, 10, 9, 12, 12.5, 12.5, 1}
	ds := recordsFromCloses(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), closes)
	Derive(ds)
	for i := 0; i < len(closes)-1; i++ {
		want := 1
		if closes[i+1] > closes[i] {
			want = 0
		}
		assert.Equal(t, want, ds.Records[i].Target, "row %d", i)
	}
}

func TestDerive_DifferencesAndCalendar(t *testing.T) {
	ds := &model.Dataset{Records: []model.PriceRecord{
		{Date: time.Date(2019, 6, 28, 0, 0, 0, 0, time.UTC), Open: 11000.5, High: 12100.25, Low: 10800.75, Close: 11900.125},
		{Date: time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), Open: 10000, High: 10500, Low: 9000, Close: 9500},
	}}
	Derive(ds)

	r := ds.Records[0]
	assert.Equal(t, 2019, r.Year)
	assert.Equal(t, 6, r.Month)
	assert.Equal(t, 28, r.Day)
	assert.Equal(t, 1, r.IsQuarterEnd)
	assert.Equal(t, 11000.5-11900.125, r.OpenClose)
	assert.Equal(t, 10800.75-12100.25, r.LowHigh)
	assert.Equal(t, 0, ds.Records[1].IsQuarterEnd)
}

func TestIsQuarterEnd_AllMonths(t *testing.T) {
	for m := 1; m <= 12; m++ {
		want := 0
		if m%3 == 0 {
			want = 1
		}
		assert.Equal(t, want, IsQuarterEnd(m), "month %d", m)
	}
}

func TestFeatureMatrix_RequiresTwoRows(t *testing.T) {
	ds := recordsFromCloses(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), []float64{5})
	Derive(ds)
	_, _, err := FeatureMatrix(ds)
	assert.Error(t, err)
}

func TestFeatureMatrix_ColumnOrder(t *testing.T) {
	ds := recordsFromCloses(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), []float64{5, 6})
	Derive(ds)
	x, _, err := FeatureMatrix(ds)
	require.NoError(t, err)
	assert.Equal(t, 1.0, x.At(0, 0))  // open-close
	assert.Equal(t, -5.0, x.At(0, 1)) // low-high
	assert.Equal(t, 1.0, x.At(0, 2))  // March is a quarter end under month%3
}
