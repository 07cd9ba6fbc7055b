package collector

import (
	"context"
	"time"

	"MarketLens/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns a field-by-instrument table of daily bars in [start, end).
	FetchHistory(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error)
	// FetchRecent returns a flat table covering the trailing number of days.
	// With autoAdjust the Close column carries adjusted prices and there is no Adj Close column.
	FetchRecent(ctx context.Context, symbol string, days int, autoAdjust bool) (*model.PriceTable, error)
	Name() string
}
