package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guregu/null/v6"

	"BitcoinTrend/internal/model"
)

// DateLayout is the expected format of the Date column.
const DateLayout = "2006-01-02"

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// CSVSource implements Source over a local CSV file.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source reading the given file.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string { return "csv:" + s.Path }

// cell is a nullable float that understands the usual CSV spellings of a missing value.
type cell struct {
	null.Float
}

func (c *cell) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NaN", "nan", "NA", "N/A", "null", "NULL":
		c.Float = null.Float{}
		return nil
	}
	return c.Float.UnmarshalText([]byte(s))
}

// csvRow is the decoded shape of one line of the price table.
type csvRow struct {
	Date     string `csv:"Date"`
	Open     cell   `csv:"Open"`
	High     cell   `csv:"High"`
	Low      cell   `csv:"Low"`
	Close    cell   `csv:"Close"`
	AdjClose cell   `csv:"Adj Close"`
	Volume   cell   `csv:"Volume"`
}

var knownColumns = map[string]bool{
	model.ColDate:     true,
	model.ColOpen:     true,
	model.ColHigh:     true,
	model.ColLow:      true,
	model.ColClose:    true,
	model.ColAdjClose: true,
	model.ColVolume:   true,
}

// LoadTable reads and decodes the whole file. Rows are kept in file order.
func (s *CSVSource) LoadTable(ctx context.Context) (*model.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	table.Source = s.Path
	return table, nil
}

// ParseTable decodes CSV bytes into a PriceTable.
func ParseTable(data []byte) (*model.PriceTable, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	present := make(map[string]bool, len(header))
	var columns []string
	for _, h := range header {
		h = strings.TrimSpace(h)
		present[h] = true
		if knownColumns[h] {
			columns = append(columns, h)
		}
	}
	for _, req := range model.RequiredColumns {
		if !present[req] {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, req)
		}
	}

	var rows []csvRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		date := strings.TrimSpace(r.Date)
		t, err := time.Parse(DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse date %q: %w", i+1, r.Date, err)
		}
		bars[i] = model.Bar{
			Date:     date,
			Time:     t,
			Open:     r.Open.Float,
			High:     r.High.Float,
			Low:      r.Low.Float,
			Close:    r.Close.Float,
			AdjClose: r.AdjClose.Float,
			Volume:   r.Volume.Float,
		}
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			log.Printf("[WARN] dates not strictly ascending at row %d (%s after %s)", i+1, bars[i].Date, bars[i-1].Date)
			break
		}
	}

	return &model.PriceTable{Columns: columns, Bars: bars}, nil
}
