package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSource_ExplicitCloses(t *testing.T) {
	src := &MockSource{Closes: []float64{100, 105, 103, 110}}
	table, err := src.LoadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Bars, 4)
	assert.Equal(t, "2020-01-01", table.Bars[0].Date)
	assert.Equal(t, "2020-01-04", table.Bars[3].Date)
	for _, b := range table.Bars {
		assert.True(t, b.Complete())
		assert.GreaterOrEqual(t, b.High.Float64, b.Low.Float64)
	}
}

func TestMockSource_Generated(t *testing.T) {
	src := &MockSource{Count: 50, Price: 30000}
	a, err := src.LoadTable(context.Background())
	require.NoError(t, err)
	b, err := src.LoadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, a.Bars, 50)
	assert.Equal(t, a.Bars, b.Bars, "mock bars should be deterministic")
}

func TestCollector_CollectAndConvert(t *testing.T) {
	col := NewCollector(&MockSource{Closes: []float64{1, 2, 3}})
	table, err := col.Collect(context.Background())
	require.NoError(t, err)

	ds, err := ToDataset(table)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, 3.0, ds.Records[2].Close)
	assert.Equal(t, table.Bars[1].Time, ds.Records[1].Date)
}

func TestCollector_EmptyTable(t *testing.T) {
	col := NewCollector(&MockSource{Closes: []float64{}})
	_, err := col.Collect(context.Background())
	require.Error(t, err)
}
