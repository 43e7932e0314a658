package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"BitcoinTrend/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Start  time.Time
	Closes []float64 // explicit close path; generated when nil
	Count  int       // number of generated bars when Closes is nil
	Price  float64   // base price for generated bars
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) LoadTable(_ context.Context) (*model.PriceTable, error) {
	start := m.Start
	if start.IsZero() {
		start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	closes := m.Closes
	if closes == nil {
		closes = generateMockCloses(m.Price, m.Count)
	}
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		t := start.AddDate(0, 0, i)
		open := c * (1 + 0.004*math.Sin(float64(i)*1.7))
		bars[i] = model.Bar{
			Date:     t.Format(DateLayout),
			Time:     t,
			Open:     null.FloatFrom(open),
			High:     null.FloatFrom(math.Max(open, c) * 1.005),
			Low:      null.FloatFrom(math.Min(open, c) * 0.995),
			Close:    null.FloatFrom(c),
			AdjClose: null.FloatFrom(c),
			Volume:   null.FloatFrom(1000000 + float64(i%7)*25000),
		}
	}
	return &model.PriceTable{
		Source:  m.Name(),
		Columns: []string{model.ColDate, model.ColOpen, model.ColHigh, model.ColLow, model.ColClose, model.ColAdjClose, model.ColVolume},
		Bars:    bars,
	}, nil
}

// generateMockCloses produces a deterministic oscillating path around basePrice.
func generateMockCloses(basePrice float64, count int) []float64 {
	if basePrice == 0 {
		basePrice = 20000
	}
	closes := make([]float64, count)
	for i := 0; i < count; i++ {
		trend := 1 + float64(i-count/2)*0.001
		wave := 1 + 0.02*math.Sin(float64(i)*0.9) + 0.01*math.Cos(float64(i)*2.3)
		closes[i] = basePrice * trend * wave
	}
	return closes
}

// Collector orchestrates loading the raw table and turning it into a dataset.
type Collector struct {
	Source Source
}

// NewCollector creates a new Collector.
func NewCollector(src Source) *Collector {
	return &Collector{Source: src}
}

// Collect loads the raw price table from the configured source.
func (c *Collector) Collect(ctx context.Context) (*model.PriceTable, error) {
	table, err := c.Source.LoadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load table from %s: %w", c.Source.Name(), err)
	}
	if len(table.Bars) == 0 {
		return nil, fmt.Errorf("load table from %s: no rows", c.Source.Name())
	}
	log.Printf("[INFO] loaded %d rows from %s", len(table.Bars), c.Source.Name())
	return table, nil
}

// ToDataset converts raw bars into price records. Rows with a null price are rejected.
func ToDataset(table *model.PriceTable) (*model.Dataset, error) {
	records := make([]model.PriceRecord, len(table.Bars))
	for i, b := range table.Bars {
		if !b.Complete() {
			return nil, fmt.Errorf("row %d (%s): null price cell", i+1, b.Date)
		}
		records[i] = model.PriceRecord{
			Date:  b.Time,
			Open:  b.Open.Float64,
			High:  b.High.Float64,
			Low:   b.Low.Float64,
			Close: b.Close.Float64,
		}
	}
	return &model.Dataset{Source: table.Source, Records: records}, nil
}
