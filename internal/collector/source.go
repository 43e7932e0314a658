package collector

import (
	"context"

	"BitcoinTrend/internal/model"
)

// Source defines the interface for loading a raw price table.
type Source interface {
	LoadTable(ctx context.Context) (*model.PriceTable, error)
	Name() string
}
