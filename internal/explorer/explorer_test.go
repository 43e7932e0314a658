package explorer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BitcoinTrend/internal/calculator"
	"BitcoinTrend/internal/collector"
	"BitcoinTrend/internal/model"
)

const sampleCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2022-03-30,101,103,98,100,100,10
2022-03-31,106,108,103,105,105,
2022-04-01,104,106,101,103,103,12
2022-04-02,111,113,108,110,110,13
`

func parseSample(t *testing.T) *model.PriceTable {
	t.Helper()
	table, err := collector.ParseTable([]byte(sampleCSV))
	require.NoError(t, err)
	return table
}

func mockDataset(t *testing.T, n int) (*model.PriceTable, *model.Dataset) {
	t.Helper()
	table, err := (&collector.MockSource{Count: n}).LoadTable(context.Background())
	require.NoError(t, err)
	ds, err := collector.ToDataset(table)
	require.NoError(t, err)
	calculator.Derive(ds)
	return table, ds
}

func TestShapeAndInfo(t *testing.T) {
	table := parseSample(t)
	rows, cols := Shape(table)
	assert.Equal(t, 4, rows)
	assert.Equal(t, 7, cols)

	info := Info(table)
	require.Len(t, info, 7)
	assert.Equal(t, ColumnInfo{Name: "Date", NonNull: 4, Dtype: "object"}, info[0])
	assert.Equal(t, ColumnInfo{Name: "Volume", NonNull: 3, Dtype: "float64"}, info[6])
}

func TestNullCounts(t *testing.T) {
	counts := NullCounts(parseSample(t))
	assert.Equal(t, 1, counts["Volume"])
	assert.Equal(t, 0, counts["Close"])
}

func TestDescribeTable(t *testing.T) {
	sums := DescribeTable(parseSample(t))
	require.Len(t, sums, 6)
	closeSum := sums[3]
	assert.Equal(t, "Close", closeSum.Column)
	assert.Equal(t, 4, closeSum.Count)
	assert.InDelta(t, 104.5, closeSum.Mean, 1e-12)
	assert.InDelta(t, 102.25, closeSum.Q1, 1e-12)
	assert.InDelta(t, 104.0, closeSum.Median, 1e-12)
	assert.InDelta(t, 106.25, closeSum.Q3, 1e-12)

	assert.Equal(t, 3, sums[5].Count, "nulls are skipped")
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summarize(&buf, parseSample(t)))
	out := buf.String()

	assert.Contains(t, out, "2022-03-30")
	assert.Contains(t, out, "(4, 7)")
	assert.Contains(t, out, "count")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "3 non-null")
	assert.Contains(t, out, "Check if data is null:")

	headLines := strings.Split(out, "\n")
	assert.Contains(t, headLines[0], "Adj Close")
}

func TestWriteHead_LimitsRows(t *testing.T) {
	table, _ := mockDataset(t, 20)
	var buf bytes.Buffer
	require.NoError(t, WriteHead(&buf, table))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, HeadRows+1)
}

func TestSlicePercents(t *testing.T) {
	assert.Equal(t, []float64{25, 75}, SlicePercents([]float64{1, 3}))
	assert.Equal(t, []float64{0, 0}, SlicePercents([]float64{0, 0}))
	assert.Equal(t, "66.7%", formatPercent(SlicePercents([]float64{2, 1})[0]))
}

func TestCharts_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	charts, err := NewCharts(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultZoomMax), charts.ZoomMax)

	table, ds := mockDataset(t, 400)
	written := charts.RenderRaw(table)
	written = append(written, charts.RenderFeatures(ds)...)
	cmPath, err := charts.ConfusionMatrix(model.ConfusionMatrix{Model: "m", Counts: [2][2]int{{3, 1}, {2, 4}}})
	require.NoError(t, err)
	written = append(written, cmPath)

	want := []string{FileClose, FileDistributions, FileBoxPlots, FileYearlyMeans, FileTargetPie, FileCorrelation, FileConfusion}
	require.Len(t, written, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(dir, name), written[i])
		info, err := os.Stat(written[i])
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestCharts_DegenerateInputs(t *testing.T) {
	charts, err := NewCharts(t.TempDir(), 100)
	require.NoError(t, err)

	// Constant columns and an all-zero confusion matrix must still render.
	table, err := (&collector.MockSource{Closes: []float64{5, 5, 5}}).LoadTable(context.Background())
	require.NoError(t, err)
	_, err = charts.Distributions(table)
	assert.NoError(t, err)
	_, err = charts.ConfusionMatrix(model.ConfusionMatrix{Model: "empty"})
	assert.NoError(t, err)

	_, err = charts.TargetPie(&model.Dataset{})
	assert.Error(t, err)
}

func TestNewCharts_EmptyDir(t *testing.T) {
	_, err := NewCharts("", 0)
	assert.Error(t, err)
}
