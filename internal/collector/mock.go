package collector

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"MarketLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// When Table is nil it generates deterministic synthetic bars.
type MockFetcher struct {
	Price float64
	Table *model.PriceTable
	Err   error

	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Table != nil {
		return m.Table, nil
	}
	var dates []time.Time
	for d := day(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dates = append(dates, d)
		}
	}
	bars := make(map[string][]model.OHLCV, len(symbols))
	for _, sym := range symbols {
		bars[sym] = generateMockBars(m.basePrice(), dates, seed(sym))
	}
	return BuildTable(model.ShapeFieldByInstrument, symbols, bars, false), nil
}

func (m *MockFetcher) FetchRecent(_ context.Context, symbol string, days int, autoAdjust bool) (*model.PriceTable, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Table != nil {
		return m.Table, nil
	}
	end := day(time.Now().UTC())
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = end.AddDate(0, 0, i-days+1)
	}
	bars := map[string][]model.OHLCV{symbol: generateMockBars(m.basePrice(), dates, seed(symbol))}
	return BuildTable(model.ShapeFlat, []string{symbol}, bars, autoAdjust), nil
}

func (m *MockFetcher) basePrice() float64 {
	if m.Price > 0 {
		return m.Price
	}
	return 100
}

func seed(symbol string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum32()
}

func generateMockBars(basePrice float64, dates []time.Time, seed uint32) []model.OHLCV {
	drift := float64(seed%7) * 0.0003
	phase := float64(seed % 13)
	bars := make([]model.OHLCV, len(dates))
	for i, d := range dates {
		p := basePrice * (1 + drift*float64(i) + 0.02*math.Sin(float64(i)/3+phase))
		bars[i] = model.OHLCV{
			Time:     d,
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			AdjClose: p * 0.98,
			Volume:   1000000,
		}
	}
	return bars
}
