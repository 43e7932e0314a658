// Package explorer prints descriptive summaries of the raw price table and
// renders the diagnostic charts.
package explorer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"BitcoinTrend/internal/calculator"
	"BitcoinTrend/internal/model"
)

// HeadRows is how many leading rows Head prints.
const HeadRows = 5

// ColumnInfo describes one header column.
type ColumnInfo struct {
	Name    string
	NonNull int
	Dtype   string
}

// ColumnSummary pairs a numeric column with its statistics.
type ColumnSummary struct {
	Column string
	calculator.Summary
}

// Shape returns (rows, columns) of the table.
func Shape(t *model.PriceTable) (int, int) {
	return len(t.Bars), len(t.Columns)
}

// Info lists every column with its non-null count and kind.
func Info(t *model.PriceTable) []ColumnInfo {
	out := make([]ColumnInfo, 0, len(t.Columns))
	for _, c := range t.Columns {
		dtype := "float64"
		if c == model.ColDate {
			dtype = "object"
		}
		out = append(out, ColumnInfo{Name: c, NonNull: len(t.Bars) - t.NullCount(c), Dtype: dtype})
	}
	return out
}

// DescribeTable computes summary statistics for every numeric column that has values.
func DescribeTable(t *model.PriceTable) []ColumnSummary {
	var out []ColumnSummary
	for _, c := range t.NumericColumns() {
		s, err := calculator.Describe(t.Values(c))
		if err != nil {
			continue
		}
		out = append(out, ColumnSummary{Column: c, Summary: s})
	}
	return out
}

// NullCounts returns the number of null cells per column, in header order.
func NullCounts(t *model.PriceTable) map[string]int {
	out := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		out[c] = t.NullCount(c)
	}
	return out
}

func formatCell(v float64, valid bool) string {
	if !valid {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteHead prints the first rows of the table.
func WriteHead(w io.Writer, t *model.PriceTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(t.Columns, "\t"))
	for i, b := range t.Bars {
		if i == HeadRows {
			break
		}
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			if c == model.ColDate {
				cells[j] = b.Date
				continue
			}
			v := b.Value(c)
			cells[j] = formatCell(v.Float64, v.Valid)
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteShape prints the table dimensions as (rows, columns).
func WriteShape(w io.Writer, t *model.PriceTable) error {
	rows, cols := Shape(t)
	_, err := fmt.Fprintf(w, "(%d, %d)\n", rows, cols)
	return err
}

// WriteDescribe prints count, mean, std, min, quartiles and max per numeric column.
func WriteDescribe(w io.Writer, t *model.PriceTable) error {
	sums := DescribeTable(t)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := make([]string, len(sums))
	for i, s := range sums {
		header[i] = s.Column
	}
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(header, "\t"))

	rows := []struct {
		label string
		get   func(calculator.Summary) float64
	}{
		{"count", func(s calculator.Summary) float64 { return float64(s.Count) }},
		{"mean", func(s calculator.Summary) float64 { return s.Mean }},
		{"std", func(s calculator.Summary) float64 { return s.Std }},
		{"min", func(s calculator.Summary) float64 { return s.Min }},
		{"25%", func(s calculator.Summary) float64 { return s.Q1 }},
		{"50%", func(s calculator.Summary) float64 { return s.Median }},
		{"75%", func(s calculator.Summary) float64 { return s.Q3 }},
		{"max", func(s calculator.Summary) float64 { return s.Max }},
	}
	for _, r := range rows {
		cells := make([]string, len(sums))
		for i, s := range sums {
			cells[i] = fmt.Sprintf("%.6f", r.get(s.Summary))
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteInfo prints the column listing with non-null counts.
func WriteInfo(w io.Writer, t *model.PriceTable) error {
	rows, cols := Shape(t)
	fmt.Fprintf(w, "RangeIndex: %d entries, 0 to %d\n", rows, rows-1)
	fmt.Fprintf(w, "Data columns (total %d columns):\n", cols)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tDtype")
	for i, ci := range Info(t) {
		fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\n", i, ci.Name, ci.NonNull, ci.Dtype)
	}
	return tw.Flush()
}

// WriteNullCounts prints how many null cells each column has.
func WriteNullCounts(w io.Writer, t *model.PriceTable) error {
	fmt.Fprintln(w, "Check if data is null:")
	counts := NullCounts(t)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range t.Columns {
		fmt.Fprintf(tw, "%s\t%d\n", c, counts[c])
	}
	return tw.Flush()
}

// Summarize prints head, shape, describe, info and null counts in that order.
func Summarize(w io.Writer, t *model.PriceTable) error {
	steps := []func(io.Writer, *model.PriceTable) error{
		WriteHead, WriteShape, WriteDescribe, WriteInfo, WriteNullCounts,
	}
	for _, step := range steps {
		if err := step(w, t); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}
